package cli

import (
	"strings"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/skbuff"
)

// LabelFlags provides label flags.
type LabelFlags struct {
	Labels []KeyValue `short:"l" name:"label" help:"KEY=VALUE label to attach (can be repeated)."`
}

// PadFlag provides the argument padding flag.
type PadFlag struct {
	Pad int `name:"pad" help:"Pad the outermost argument list to this many slots with 0 (-1 uses [lang] width)." default:"-1"`
}

// Options returns the binder options for width, falling back to the
// configured width. Zero disables padding.
func (f PadFlag) Options(configured int) []lang.Option {
	width := f.Pad
	if width < 0 {
		width = configured
	}
	if width == 0 {
		return nil
	}
	return []lang.Option{lang.Pad(width, lang.Int64(0))}
}

// StateFlags provides packet metadata flags.
type StateFlags struct {
	Class    Mask `name:"class" help:"Initial class mask (decimal or 0x hex)."`
	Groups   Mask `name:"groups" help:"Initial group mask (decimal or 0x hex)."`
	ToKernel bool `name:"to-kernel" help:"Initial to-kernel flag."`
}

// State returns the packet metadata the flags describe.
func (f StateFlags) State() skbuff.State {
	return skbuff.State{Class: uint64(f.Class), Groups: uint64(f.Groups), ToKernel: f.ToKernel}
}

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatTable    OutputFormat = "table"
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatJSONPath OutputFormat = "jsonpath"
)

const jsonPathPrefix = "jsonpath="

// OutputFlags provides output formatting flags.
type OutputFlags struct {
	Output string `short:"o" help:"Output format: table, json, jsonpath=EXPR." default:"table"`
}

// Format returns the base format type.
func (f *OutputFlags) Format() OutputFormat {
	switch {
	case f.Output == "json":
		return OutputFormatJSON
	case strings.HasPrefix(f.Output, jsonPathPrefix) && len(f.Output) > len(jsonPathPrefix):
		return OutputFormatJSONPath
	default:
		return OutputFormatTable
	}
}

// JSONPathExpr returns the JSONPath expression if format is jsonpath=EXPR.
func (f *OutputFlags) JSONPathExpr() string {
	if f.Format() == OutputFormatJSONPath {
		return f.Output[len(jsonPathPrefix):]
	}
	return ""
}
