package lang

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
)

// ArgKind identifies the kind of value held in one argument slot.
type ArgKind uint8

const (
	KindInt32 ArgKind = iota + 1
	KindInt64
	KindFloat
	KindBytes
	KindRef
)

func (k ArgKind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindRef:
		return "fn"
	default:
		return fmt.Sprintf("ArgKind(%d)", k)
	}
}

// Arg is one slot of a bound argument list. The set of implementations
// is closed: Int32, Int64, Float, Bytes and Ref.
type Arg interface {
	Kind() ArgKind
	String() string
	isArg()
}

// Value is an Arg that is a plain value rather than a continuation.
type Value interface {
	Arg
	isValue()
}

// Int32 is a 32-bit integer argument.
type Int32 int32

// Int64 is a 64-bit integer argument.
type Int64 int64

// Float is a floating point argument.
type Float float64

// Bytes is a byte-string argument.
type Bytes []byte

// Ref is a continuation: a nested bound node passed as an argument.
type Ref struct {
	node Node
}

func (Int32) Kind() ArgKind { return KindInt32 }
func (Int64) Kind() ArgKind { return KindInt64 }
func (Float) Kind() ArgKind { return KindFloat }
func (Bytes) Kind() ArgKind { return KindBytes }
func (Ref) Kind() ArgKind   { return KindRef }

func (Int32) isArg() {}
func (Int64) isArg() {}
func (Float) isArg() {}
func (Bytes) isArg() {}
func (Ref) isArg()   {}

func (Int32) isValue() {}
func (Int64) isValue() {}
func (Float) isValue() {}
func (Bytes) isValue() {}

func (a Int32) String() string { return strconv.FormatInt(int64(a), 10) }
func (a Int64) String() string { return strconv.FormatInt(int64(a), 10) }
func (a Float) String() string { return strconv.FormatFloat(float64(a), 'g', -1, 64) }
func (a Bytes) String() string { return strconv.Quote(string(a)) }
func (a Ref) String() string   { return "(" + a.node.String() + ")" }

// cloneArg returns a with its byte storage copied. Bytes is the only
// kind that shares memory with whoever built or read it.
func cloneArg(a Arg) Arg {
	if b, ok := a.(Bytes); ok && b != nil {
		return Bytes(bytes.Clone(b))
	}
	return a
}

// Node returns the continuation's bound node.
func (a Ref) Node() Node { return a.node }

// Literal is the set of Go types accepted as plain values by the
// shape-typed binders.
type Literal interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float64 | ~string | ~[]byte
}

// Lift converts a literal into an argument slot. Int32 stays 32 bits;
// every other integer type widens to Int64; strings become Bytes.
func Lift[A Literal](a A) Value {
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Int32:
		return Int32(v.Int())
	case reflect.Int, reflect.Int64:
		return Int64(v.Int())
	case reflect.Uint32, reflect.Uint64:
		return Int64(int64(v.Uint()))
	case reflect.Float64:
		return Float(v.Float())
	case reflect.String:
		return Bytes(v.String())
	default:
		// ~[]byte is the only remaining member of Literal.
		return Bytes(bytes.Clone(v.Bytes()))
	}
}
