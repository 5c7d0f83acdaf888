package cli

import (
	"fmt"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/transport"
)

// BindCmd parses an expression and prints the typed node.
type BindCmd struct {
	PadFlag
	Expr   string `arg:"" name:"expr" help:"Expression, e.g. 'seq (reclassify 5) (deliver 3)'."`
	Output string `short:"o" help:"Output format: text, json." default:"text" enum:"text,json"`
}

// Run executes the bind command.
func (c *BindCmd) Run(cli *CLI) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	n, err := lang.Parse(c.Expr, c.PadFlag.Options(cfg.Lang.Width)...)
	if err != nil {
		return err
	}

	if c.Output == "json" {
		b, err := transport.JSON(n)
		if err != nil {
			return fmt.Errorf("encode %s: %w", n.Symbol(), err)
		}
		return cli.PrintOutf("%s\n", b)
	}
	return cli.PrintOutf("%s :: %s\n", n, n.Shape())
}
