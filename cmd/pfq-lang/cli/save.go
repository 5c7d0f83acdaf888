package cli

import (
	"context"

	"github.com/frobware/go-pfq/client"
	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
)

// SaveCmd compiles an expression and stores it under a name.
type SaveCmd struct {
	OutputFlags
	LabelFlags
	PadFlag
	Name string `arg:"" name:"name" help:"Name to store the composition under."`
	Expr string `arg:"" name:"expr" help:"Expression, e.g. 'seq (reclassify 5) (deliver 3)'."`
}

// Run executes the save command.
func (c *SaveCmd) Run(cli *CLI) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	n, err := lang.Parse(c.Expr, c.PadFlag.Options(cfg.Lang.Width)...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return cli.WithWriter(ctx, func(b client.Client) error {
		rec, err := b.Compile(ctx, c.Name, n, manager.CompileOpts{Labels: LabelMap(c.Labels)})
		if err != nil {
			return err
		}
		output, err := FormatRecord(rec, &c.OutputFlags)
		if err != nil {
			return err
		}
		return cli.PrintOut(output)
	})
}
