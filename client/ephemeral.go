package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/grpc"

	"github.com/frobware/go-pfq/config"
	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
	"github.com/frobware/go-pfq/server"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/store/sqlite"
)

// ephemeralClient spawns an in-process gRPC server and connects to it.
// This keeps the gRPC handlers the canonical implementation for local
// and remote use alike.
type ephemeralClient struct {
	remote     *remoteClient
	store      store.Store
	grpcServer *grpc.Server
	listener   net.Listener
	socketDir  string // removed on Close
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// newEphemeral opens the store and serves it on a private Unix socket.
func newEphemeral(dirs config.RuntimeDirs, cfg config.Config, logger *slog.Logger) (*ephemeralClient, error) {
	st, err := sqlite.New(context.Background(), cfg.StorePath(dirs), logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	mgr := manager.New(st, server.NewEvaluator(logger, cfg.Diagnostics.RateLimit()), logger)
	grpcServer := server.New(mgr, logger).Register()

	socketDir, err := os.MkdirTemp("", "pfq-ephemeral-")
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	socketPath := filepath.Join(socketDir, "pfq-lang.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		st.Close()
		os.RemoveAll(socketDir)
		return nil, fmt.Errorf("listen on socket %s: %w", socketPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &ephemeralClient{
		store:      st,
		grpcServer: grpcServer,
		listener:   listener,
		socketDir:  socketDir,
		cancel:     cancel,
		logger:     logger,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := grpcServer.Serve(listener); err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Error("ephemeral server failed", "error", err)
			}
		}
	}()

	remote, err := newRemote(socketPath, logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("connect to ephemeral server: %w", err)
	}

	e.remote = remote
	return e, nil
}

// Close shuts down the ephemeral server and releases all resources.
func (e *ephemeralClient) Close() error {
	e.cancel()
	if e.remote != nil {
		e.remote.Close()
	}
	e.grpcServer.GracefulStop()
	e.wg.Wait()
	err := e.store.Close()
	if rmErr := os.RemoveAll(e.socketDir); rmErr != nil {
		e.logger.Warn("failed to remove socket directory during close", "path", e.socketDir, "error", rmErr)
	}
	return err
}

func (e *ephemeralClient) Compile(ctx context.Context, name string, n lang.Node, opts manager.CompileOpts) (store.Record, error) {
	return e.remote.Compile(ctx, name, n, opts)
}

func (e *ephemeralClient) Get(ctx context.Context, name string) (store.Record, error) {
	return e.remote.Get(ctx, name)
}

func (e *ephemeralClient) List(ctx context.Context, opts manager.ListOpts) ([]store.Record, error) {
	return e.remote.List(ctx, opts)
}

func (e *ephemeralClient) Delete(ctx context.Context, name string) error {
	return e.remote.Delete(ctx, name)
}

func (e *ephemeralClient) Evaluate(ctx context.Context, names []string, proceedOn uint32, in skbuff.State) (manager.Result, error) {
	return e.remote.Evaluate(ctx, names, proceedOn, in)
}

func (e *ephemeralClient) EvaluateNode(ctx context.Context, n lang.Node, in skbuff.State) (manager.Result, error) {
	return e.remote.EvaluateNode(ctx, n, in)
}
