package functional

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgKind identifies the kind of a descriptor argument.
type ArgKind uint8

const (
	ArgInt32 ArgKind = iota + 1
	ArgInt64
	ArgFloat
	ArgBytes
	ArgFunc
)

func (k ArgKind) String() string {
	switch k {
	case ArgInt32:
		return "int32"
	case ArgInt64:
		return "int64"
	case ArgFloat:
		return "float"
	case ArgBytes:
		return "bytes"
	case ArgFunc:
		return "fn"
	default:
		return fmt.Sprintf("ArgKind(%d)", k)
	}
}

// Arg is one decoded argument slot. Exactly one of the value fields is
// meaningful, selected by Kind.
type Arg struct {
	Kind  ArgKind
	Int   int64
	Float float64
	Bytes []byte
	Func  *Descr
}

// IntArg returns a 64-bit integer argument.
func IntArg(v int64) Arg { return Arg{Kind: ArgInt64, Int: v} }

// FloatArg returns a floating point argument.
func FloatArg(v float64) Arg { return Arg{Kind: ArgFloat, Float: v} }

// BytesArg returns a byte-string argument.
func BytesArg(b []byte) Arg { return Arg{Kind: ArgBytes, Bytes: b} }

// FuncArg returns a continuation argument.
func FuncArg(d Descr) Arg { return Arg{Kind: ArgFunc, Func: &d} }

func (a Arg) String() string {
	switch a.Kind {
	case ArgInt32, ArgInt64:
		return strconv.FormatInt(a.Int, 10)
	case ArgFloat:
		return strconv.FormatFloat(a.Float, 'g', -1, 64)
	case ArgBytes:
		return strconv.Quote(string(a.Bytes))
	case ArgFunc:
		if a.Func == nil {
			return "()"
		}
		return "(" + a.Func.String() + ")"
	default:
		return "?"
	}
}

// Descr is a function descriptor as received from the construction
// side: a symbol and its positional arguments.
type Descr struct {
	Symbol string
	Args   []Arg
}

func (d Descr) String() string {
	var sb strings.Builder
	sb.WriteString(d.Symbol)
	for _, a := range d.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	return sb.String()
}
