package lang

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseError reports a malformed expression.
type ParseError struct {
	Pos int
	Msg string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parse builds a node from the text form produced by Node.String:
//
//	seq (reclassify 5) (deliver 3)
//
// Integers become Int64, numbers with a fraction or exponent become
// Float and double-quoted strings become Bytes. Parenthesised
// sub-expressions are continuations and must follow every plain value.
// The binder is chosen from the argument layout, so a parsed node has
// the same shape as one built directly. opts apply to the outermost node.
func Parse(text string, opts ...Option) (Node, error) {
	p := &parser{src: text}
	p.skipSpace()

	var (
		n   Node
		err error
	)
	if p.peek() == '(' {
		n, err = p.group()
	} else {
		n, err = p.expr()
	}
	if err != nil {
		return Node{}, err
	}

	p.skipSpace()
	if p.pos < len(p.src) {
		return Node{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	if len(opts) > 0 {
		n = freeze(n.symbol, n.shape, n.args, opts)
	}
	return n, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return ParseError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) group() (Node, error) {
	p.pos++ // (
	p.skipSpace()
	n, err := p.expr()
	if err != nil {
		return Node{}, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return Node{}, p.errorf("missing ')'")
	}
	p.pos++
	return n, nil
}

func (p *parser) expr() (Node, error) {
	symbol := p.atom()
	if symbol == "" {
		return Node{}, p.errorf("expected symbol")
	}

	var (
		vals []Value
		fns  []Node
	)
	for {
		p.skipSpace()
		switch c := p.peek(); {
		case c == 0 || c == ')':
			return p.bind(symbol, vals, fns)
		case c == '(':
			f, err := p.group()
			if err != nil {
				return Node{}, err
			}
			fns = append(fns, f)
		default:
			if len(fns) > 0 {
				return Node{}, p.errorf("value after continuation in %q", symbol)
			}
			v, err := p.value()
			if err != nil {
				return Node{}, err
			}
			vals = append(vals, v)
		}
	}
}

func (p *parser) atom() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '(' || c == ')' || c == '"' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) value() (Value, error) {
	if p.peek() == '"' {
		start := p.pos
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] != '"' {
			if p.src[p.pos] == '\\' {
				p.pos++
			}
			p.pos++
		}
		if p.pos >= len(p.src) {
			return nil, ParseError{Pos: start, Msg: "unterminated string"}
		}
		p.pos++
		s, err := strconv.Unquote(p.src[start:p.pos])
		if err != nil {
			return nil, ParseError{Pos: start, Msg: err.Error()}
		}
		return Bytes(s), nil
	}

	start := p.pos
	tok := p.atom()
	if i, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return Int64(i), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Float(f), nil
	}
	return nil, ParseError{Pos: start, Msg: fmt.Sprintf("invalid value %q", tok)}
}

func (p *parser) bind(symbol string, vals []Value, fns []Node) (Node, error) {
	vs := Tuple(vals...)
	switch len(fns) {
	case 0:
		return BindP(symbol, vs), nil
	case 1:
		switch len(vals) {
		case 0:
			return BindF(symbol, fns[0]), nil
		case 1:
			return bind1F(symbol, vals[0], fns[0]), nil
		default:
			return BindPF(symbol, vs, fns[0]), nil
		}
	case 2:
		if len(vals) == 0 {
			return BindFF(symbol, fns[0], fns[1]), nil
		}
		return BindPFF(symbol, vs, fns[0], fns[1]), nil
	default:
		return Node{}, p.errorf("%q takes at most two continuations, got %d", symbol, len(fns))
	}
}

func bind1F(symbol string, v Value, f Node) Node {
	switch v := v.(type) {
	case Int32:
		return Bind1F(symbol, int32(v), f)
	case Int64:
		return Bind1F(symbol, int64(v), f)
	case Float:
		return Bind1F(symbol, float64(v), f)
	default:
		return Bind1F(symbol, []byte(v.(Bytes)), f)
	}
}
