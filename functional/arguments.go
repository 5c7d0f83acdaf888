package functional

// Arguments is the resolved argument list an action reads from. Reads
// are positional; an out-of-range index or a slot of another kind reads
// as the zero value, so an unbound integer argument is seen as 0.
type Arguments struct {
	args []Arg
	fns  []*Function
}

// Len returns the number of argument slots.
func (a Arguments) Len() int { return len(a.args) }

// Kind returns the kind of slot i, or 0 when out of range.
func (a Arguments) Kind(i int) ArgKind {
	if i < 0 || i >= len(a.args) {
		return 0
	}
	return a.args[i].Kind
}

// Int returns slot i as an integer.
func (a Arguments) Int(i int) int64 {
	switch a.Kind(i) {
	case ArgInt32, ArgInt64:
		return a.args[i].Int
	}
	return 0
}

// Float returns slot i as a float.
func (a Arguments) Float(i int) float64 {
	if a.Kind(i) != ArgFloat {
		return 0
	}
	return a.args[i].Float
}

// Bytes returns slot i as a byte string.
func (a Arguments) Bytes(i int) []byte {
	if a.Kind(i) != ArgBytes {
		return nil
	}
	return a.args[i].Bytes
}

// Func returns the resolved continuation in slot i, or nil.
func (a Arguments) Func(i int) *Function {
	if a.Kind(i) != ArgFunc {
		return nil
	}
	return a.fns[i]
}
