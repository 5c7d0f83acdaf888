// Package lang builds bound nodes: a registry symbol paired with a
// fixed-width, positionally ordered argument list.
//
// Nodes are produced by the binders in bind.go, one per argument shape.
// The Go signature of each binder fixes how many plain values and how
// many continuations it accepts, so an over-supplied call does not
// compile. Symbols are not validated here; resolution belongs to the
// evaluation side.
package lang

import (
	"iter"
	"slices"
	"strings"

	"github.com/frobware/go-pfq/tuple"
)

// Shape identifies which binder produced a node.
type Shape uint8

const (
	// ShapeValues is plain values only.
	ShapeValues Shape = iota
	// ShapeValuesFn is plain values followed by one continuation.
	ShapeValuesFn
	// ShapeValuesFnFn is plain values followed by two continuations.
	ShapeValuesFnFn
	// ShapeFn is a single continuation.
	ShapeFn
	// ShapeFnFn is two continuations.
	ShapeFnFn
	// ShapeValueFn is exactly one plain value and one continuation.
	ShapeValueFn
)

var shapeNames = map[Shape]string{
	ShapeValues:     "values",
	ShapeValuesFn:   "values+fn",
	ShapeValuesFnFn: "values+fn+fn",
	ShapeFn:         "fn",
	ShapeFnFn:       "fn+fn",
	ShapeValueFn:    "value+fn",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseShape is the inverse of Shape.String.
func ParseShape(s string) (Shape, bool) {
	for shape, name := range shapeNames {
		if name == s {
			return shape, true
		}
	}
	return 0, false
}

// Node is an immutable bound node. The zero value is a node with an
// empty symbol and no arguments.
type Node struct {
	symbol string
	shape  Shape
	args   []Arg
}

// Symbol returns the registry symbol the node applies.
func (n Node) Symbol() string { return n.symbol }

// Shape returns the binder shape that produced the node.
func (n Node) Shape() Shape { return n.shape }

// Arity returns the number of argument slots after padding.
func (n Node) Arity() int { return len(n.args) }

// Arg returns the argument at position i, or nil when i is out of range.
func (n Node) Arg(i int) Arg {
	if i < 0 || i >= len(n.args) {
		return nil
	}
	return cloneArg(n.args[i])
}

// Args returns a copy of the argument list. Bytes slots are copied too,
// so nothing the caller does to the result reaches n.
func (n Node) Args() []Arg {
	args := slices.Clone(n.args)
	for i, a := range args {
		args[i] = cloneArg(a)
	}
	return args
}

// All iterates the argument slots in ascending order.
func (n Node) All() iter.Seq2[int, Arg] {
	return func(yield func(int, Arg) bool) {
		for i := range tuple.Indices(len(n.args)) {
			if !yield(i, cloneArg(n.args[i])) {
				return
			}
		}
	}
}

// Continuations returns the nested nodes referenced by the argument
// list, in slot order.
func (n Node) Continuations() []Node {
	var out []Node
	tuple.ForEach(n.args, func(a Arg) {
		if ref, ok := a.(Ref); ok {
			out = append(out, ref.node)
		}
	})
	return out
}

// String renders the node as "symbol arg0 arg1 ...", with nested nodes
// in parentheses.
func (n Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.symbol)
	tuple.ForEach(n.args, func(a Arg) {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	})
	return sb.String()
}

// Equal reports whether two nodes have the same symbol, shape and
// argument slots.
func (n Node) Equal(o Node) bool {
	if n.symbol != o.symbol || n.shape != o.shape || len(n.args) != len(o.args) {
		return false
	}
	for i := range n.args {
		if !argEqual(n.args[i], o.args[i]) {
			return false
		}
	}
	return true
}

func argEqual(a, b Arg) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Bytes:
		return string(a) == string(b.(Bytes))
	case Ref:
		return a.node.Equal(b.(Ref).node)
	default:
		return a == b
	}
}
