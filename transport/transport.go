// Package transport hands bound nodes to the evaluation side.
//
// In-process, Compile converts a lang.Node straight into a
// functional.Descr. Across a process boundary a node travels as a
// google.protobuf.Struct:
//
//	{
//	  "symbol": "seq",
//	  "shape":  "fn+fn",
//	  "args": [
//	    {"fn": {"symbol": "reclassify", "shape": "values", "args": [{"int64": "5"}]}},
//	    {"fn": {"symbol": "deliver", "shape": "values", "args": [{"int64": "3"}]}}
//	  ]
//	}
//
// Each argument is a single-key struct naming its kind. Integers are
// carried as decimal strings because a Struct number is a float64.
// Bytes are base64. Argument order is preserved.
package transport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/lang"
)

// Field names used in the wire form.
const (
	FieldSymbol = "symbol"
	FieldShape  = "shape"
	FieldArgs   = "args"

	kindInt32 = "int32"
	kindInt64 = "int64"
	kindFloat = "float"
	kindBytes = "bytes"
	kindFn    = "fn"
)

// DecodeError reports a malformed wire value. Path locates the offending
// field, e.g. "args[1].fn.args[0]".
type DecodeError struct {
	Path string
	Msg  string
}

func (e DecodeError) Error() string {
	if e.Path == "" {
		return "decode: " + e.Msg
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Msg)
}

// Compile converts n into a descriptor for the evaluator.
func Compile(n lang.Node) functional.Descr {
	d := functional.Descr{
		Symbol: n.Symbol(),
		Args:   make([]functional.Arg, 0, n.Arity()),
	}
	for _, a := range n.All() {
		d.Args = append(d.Args, compileArg(a))
	}
	return d
}

func compileArg(a lang.Arg) functional.Arg {
	switch a := a.(type) {
	case lang.Int32:
		return functional.Arg{Kind: functional.ArgInt32, Int: int64(a)}
	case lang.Int64:
		return functional.IntArg(int64(a))
	case lang.Float:
		return functional.FloatArg(float64(a))
	case lang.Bytes:
		return functional.BytesArg(bytes.Clone(a))
	case lang.Ref:
		return functional.FuncArg(Compile(a.Node()))
	default:
		panic(fmt.Sprintf("transport: unhandled argument kind %T", a))
	}
}

// Encode renders n as a Struct.
func Encode(n lang.Node) *structpb.Struct {
	args := make([]*structpb.Value, 0, n.Arity())
	for _, a := range n.All() {
		args = append(args, structpb.NewStructValue(encodeArg(a)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldSymbol: structpb.NewStringValue(n.Symbol()),
		FieldShape:  structpb.NewStringValue(n.Shape().String()),
		FieldArgs:   structpb.NewListValue(&structpb.ListValue{Values: args}),
	}}
}

func encodeArg(a lang.Arg) *structpb.Struct {
	var key string
	var v *structpb.Value
	switch a := a.(type) {
	case lang.Int32:
		key, v = kindInt32, structpb.NewStringValue(strconv.FormatInt(int64(a), 10))
	case lang.Int64:
		key, v = kindInt64, structpb.NewStringValue(strconv.FormatInt(int64(a), 10))
	case lang.Float:
		key, v = kindFloat, structpb.NewNumberValue(float64(a))
	case lang.Bytes:
		key, v = kindBytes, structpb.NewStringValue(base64.StdEncoding.EncodeToString(a))
	case lang.Ref:
		key, v = kindFn, structpb.NewStructValue(Encode(a.Node()))
	default:
		panic(fmt.Sprintf("transport: unhandled argument kind %T", a))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{key: v}}
}

// Decode converts a Struct produced by Encode into a descriptor.
func Decode(s *structpb.Struct) (functional.Descr, error) {
	return decode(s, "", 0)
}

func decode(s *structpb.Struct, path string, depth int) (functional.Descr, error) {
	if depth > functional.MaxDepth {
		return functional.Descr{}, DecodeError{Path: path, Msg: "nested too deeply"}
	}
	if s == nil {
		return functional.Descr{}, DecodeError{Path: path, Msg: "missing node"}
	}

	symbol, ok := s.Fields[FieldSymbol].GetKind().(*structpb.Value_StringValue)
	if !ok || symbol.StringValue == "" {
		return functional.Descr{}, DecodeError{Path: join(path, FieldSymbol), Msg: "missing or not a string"}
	}
	if shape := s.Fields[FieldShape]; shape != nil {
		if _, ok := lang.ParseShape(shape.GetStringValue()); !ok {
			return functional.Descr{}, DecodeError{Path: join(path, FieldShape), Msg: fmt.Sprintf("unknown shape %q", shape.GetStringValue())}
		}
	}

	d := functional.Descr{Symbol: symbol.StringValue}
	list := s.Fields[FieldArgs]
	if list == nil {
		return d, nil
	}
	lv, ok := list.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return functional.Descr{}, DecodeError{Path: join(path, FieldArgs), Msg: "not a list"}
	}

	d.Args = make([]functional.Arg, 0, len(lv.ListValue.GetValues()))
	for i, v := range lv.ListValue.GetValues() {
		argPath := fmt.Sprintf("%s[%d]", join(path, FieldArgs), i)
		a, err := decodeArg(v.GetStructValue(), argPath, depth)
		if err != nil {
			return functional.Descr{}, err
		}
		d.Args = append(d.Args, a)
	}
	return d, nil
}

func decodeArg(s *structpb.Struct, path string, depth int) (functional.Arg, error) {
	if s == nil || len(s.Fields) != 1 {
		return functional.Arg{}, DecodeError{Path: path, Msg: "argument must be a struct with exactly one field"}
	}

	for key, v := range s.Fields {
		switch key {
		case kindInt32, kindInt64:
			bits := 64
			kind := functional.ArgInt64
			if key == kindInt32 {
				bits, kind = 32, functional.ArgInt32
			}
			i, err := strconv.ParseInt(v.GetStringValue(), 10, bits)
			if err != nil {
				return functional.Arg{}, DecodeError{Path: join(path, key), Msg: err.Error()}
			}
			return functional.Arg{Kind: kind, Int: i}, nil
		case kindFloat:
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return functional.Arg{}, DecodeError{Path: join(path, key), Msg: "not a number"}
			}
			return functional.FloatArg(n.NumberValue), nil
		case kindBytes:
			b, err := base64.StdEncoding.DecodeString(v.GetStringValue())
			if err != nil {
				return functional.Arg{}, DecodeError{Path: join(path, key), Msg: err.Error()}
			}
			return functional.BytesArg(b), nil
		case kindFn:
			d, err := decode(v.GetStructValue(), join(path, key), depth+1)
			if err != nil {
				return functional.Arg{}, err
			}
			return functional.FuncArg(d), nil
		default:
			return functional.Arg{}, DecodeError{Path: path, Msg: fmt.Sprintf("unknown argument kind %q", key)}
		}
	}
	panic("unreachable")
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// Marshal encodes n to protobuf binary. Output is deterministic, so
// equal nodes marshal to equal bytes.
func Marshal(n lang.Node) ([]byte, error) {
	return MarshalStruct(Encode(n))
}

// MarshalStruct encodes a wire Struct to protobuf binary.
func MarshalStruct(s *structpb.Struct) ([]byte, error) {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(b []byte) (functional.Descr, error) {
	s, err := UnmarshalStruct(b)
	if err != nil {
		return functional.Descr{}, err
	}
	return Decode(s)
}

// UnmarshalStruct decodes bytes produced by Marshal without converting
// them to a descriptor.
func UnmarshalStruct(b []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &s, nil
}

// JSON renders n in the protobuf JSON mapping.
func JSON(n lang.Node) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(Encode(n))
}

// ParseJSON decodes the output of JSON.
func ParseJSON(b []byte) (functional.Descr, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(b, &s); err != nil {
		return functional.Descr{}, fmt.Errorf("parse json: %w", err)
	}
	return Decode(&s)
}
