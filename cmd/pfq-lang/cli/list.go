package cli

import (
	"context"

	"github.com/frobware/go-pfq/client"
	"github.com/frobware/go-pfq/manager"
)

// ListCmd lists stored compositions.
type ListCmd struct {
	OutputFlags
	Label KeyValue `short:"l" name:"label" help:"Only list compositions with this KEY=VALUE label."`
}

// Run executes the list command.
func (c *ListCmd) Run(cli *CLI) error {
	var opts manager.ListOpts
	if c.Label.Key != "" {
		opts = manager.ListOpts{LabelKey: c.Label.Key, LabelValue: c.Label.Value}
	}

	return cli.WithClient(func(b client.Client) error {
		recs, err := b.List(context.Background(), opts)
		if err != nil {
			return err
		}
		output, err := FormatRecords(recs, &c.OutputFlags)
		if err != nil {
			return err
		}
		return cli.PrintOut(output)
	})
}
