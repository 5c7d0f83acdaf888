package cli

import (
	"context"

	"github.com/frobware/go-pfq/client"
)

// GetCmd shows a stored composition.
type GetCmd struct {
	OutputFlags
	Name string `arg:"" name:"name" help:"Stored composition name."`
}

// Run executes the get command.
func (c *GetCmd) Run(cli *CLI) error {
	return cli.WithClient(func(b client.Client) error {
		rec, err := b.Get(context.Background(), c.Name)
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
