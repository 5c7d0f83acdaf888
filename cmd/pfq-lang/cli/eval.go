package cli

import (
	"context"
	"fmt"

	"github.com/frobware/go-pfq/client"
	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
)

// EvalCmd evaluates stored compositions, as a chain, or an unsaved
// expression.
type EvalCmd struct {
	OutputFlags
	StateFlags
	PadFlag
	Names     []string      `short:"n" name:"name" help:"Stored composition to run (repeat to chain)."`
	ProceedOn []VerdictName `name:"proceed-on" help:"Verdicts on which a chain continues (default: forward)."`
	Expr      string        `arg:"" optional:"" name:"expr" help:"Expression to evaluate without storing it."`
}

// Run executes the eval command.
func (c *EvalCmd) Run(cli *CLI) error {
	if (c.Expr == "") == (len(c.Names) == 0) {
		return fmt.Errorf("give either an expression or at least one --name")
	}

	var node lang.Node
	if c.Expr != "" {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		if node, err = lang.Parse(c.Expr, c.PadFlag.Options(cfg.Lang.Width)...); err != nil {
			return err
		}
	}

	ctx := context.Background()
	return cli.WithClient(func(b client.Client) error {
		var (
			res manager.Result
			err error
		)
		if c.Expr != "" {
			res, err = b.EvaluateNode(ctx, node, c.State())
		} else {
			res, err = b.Evaluate(ctx, c.Names, ProceedOn(c.ProceedOn), c.State())
		}
		if err != nil {
			return err
		}

		output, err := FormatResult(res, &c.OutputFlags)
		if err != nil {
			return err
		}
		return cli.PrintOut(output)
	})
}
