package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frobware/go-pfq/client"
	"github.com/frobware/go-pfq/transport"
	"github.com/frobware/go-pfq/xdp"
)

// XDPCmd lowers a stored composition to a fixed XDP action. With
// --interface it also attaches the program until interrupted.
type XDPCmd struct {
	Name      string `arg:"" name:"name" help:"Stored composition name."`
	Interface string `short:"i" name:"interface" help:"Attach to this interface until SIGINT/SIGTERM (requires root)."`
}

// Run executes the xdp command.
func (c *XDPCmd) Run(cli *CLI) error {
	var action xdp.XDPAction
	err := cli.WithClient(func(b client.Client) error {
		rec, err := b.Get(context.Background(), c.Name)
		if err != nil {
			return err
		}
		d, err := transport.Unmarshal(rec.Wire)
		if err != nil {
			return fmt.Errorf("composition %s: %w", c.Name, err)
		}
		action, err = xdp.Lower(d)
		return err
	})
	if err != nil {
		return err
	}

	if c.Interface == "" {
		return cli.PrintOutf("%s\n", action)
	}

	logger, err := cli.Logger()
	if err != nil {
		return err
	}

	a, err := xdp.Attach(xdp.ProgramSpec(progName(c.Name), action), c.Interface)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := cli.PrintOutf("%s attached to %s (ifindex %d)\n", action, a.Interface, a.Ifindex); err != nil {
		return err
	}
	logger.Info("xdp program attached", "name", c.Name, "action", action, "interface", a.Interface)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logger.Info("detaching xdp program", "name", c.Name, "interface", a.Interface)
	return nil
}

// progName derives a kernel program name from a composition name.
// Kernel names hold at most 15 characters from [A-Za-z0-9_].
func progName(name string) string {
	const maxLen = 15
	b := []byte("pfq_")
	for i := 0; i < len(name) && len(b) < maxLen; i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b = append(b, ch)
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}
