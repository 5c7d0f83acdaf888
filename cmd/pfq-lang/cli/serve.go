package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frobware/go-pfq/server"
)

// ServeCmd starts the gRPC daemon.
type ServeCmd struct {
	TCPAddress   string `name:"tcp-address" help:"TCP address for gRPC server (overrides [server] tcp_address)."`
	PprofAddress string `name:"pprof-address" help:"Address for the pprof HTTP server (disabled if empty)."`
}

// Run executes the serve command.
func (c *ServeCmd) Run(cli *CLI) error {
	logger, err := cli.LoggerFromConfig()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	appConfig, err := cli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dirs, err := cli.RuntimeDirs()
	if err != nil {
		return err
	}

	tcpAddress := c.TCPAddress
	if tcpAddress == "" {
		tcpAddress = appConfig.Server.TCPAddress
	}

	cfg := server.RunConfig{
		Dirs:         dirs,
		StorePath:    appConfig.Store.Path,
		TCPAddress:   tcpAddress,
		PprofAddress: c.PprofAddress,
		RateLimit:    appConfig.Diagnostics.RateLimit(),
		Logger:       logger,
	}

	// Create context that cancels on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.Run(ctx, cfg)
}
