package cli

import (
	"context"

	"github.com/frobware/go-pfq/client"
)

// DeleteCmd deletes a stored composition.
type DeleteCmd struct {
	Name string `arg:"" name:"name" help:"Stored composition name."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(cli *CLI) error {
	ctx := context.Background()
	return cli.WithWriter(ctx, func(b client.Client) error {
		if err := b.Delete(ctx, c.Name); err != nil {
			return err
		}
		return cli.PrintOutf("deleted %s\n", c.Name)
	})
}
