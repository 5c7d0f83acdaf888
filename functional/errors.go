package functional

import "fmt"

// ErrSymbolNotFound is returned when a descriptor names a symbol the
// registry does not hold.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("symbol %q not found in registry", e.Symbol)
}

// ErrDuplicateSymbol is returned when registering a symbol twice.
type ErrDuplicateSymbol struct {
	Symbol string
}

func (e ErrDuplicateSymbol) Error() string {
	return fmt.Sprintf("symbol %q already registered", e.Symbol)
}

// ErrTooDeep is returned when continuations nest beyond MaxDepth.
type ErrTooDeep struct {
	Symbol string
}

func (e ErrTooDeep) Error() string {
	return fmt.Sprintf("descriptor %q nests deeper than %d", e.Symbol, MaxDepth)
}

// ErrChainTooLong is returned when a chain has more than MaxChain stages.
type ErrChainTooLong struct {
	Len int
}

func (e ErrChainTooLong) Error() string {
	return fmt.Sprintf("chain of %d stages exceeds maximum of %d", e.Len, MaxChain)
}
