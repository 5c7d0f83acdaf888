// Package server implements the pfq-lang gRPC server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/frobware/go-pfq/config"
	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/lock"
	"github.com/frobware/go-pfq/logging"
	"github.com/frobware/go-pfq/manager"
	pb "github.com/frobware/go-pfq/server/pb"
	"github.com/frobware/go-pfq/store/sqlite"
)

// RunConfig configures the server daemon.
type RunConfig struct {
	Dirs         config.RuntimeDirs
	StorePath    string // SQLite database; empty selects Dirs.DBPath()
	TCPAddress   string // Optional TCP address (e.g., ":50061") for remote access
	PprofAddress string // Optional address for pprof HTTP server (e.g., "localhost:2026")
	RateLimit    logging.RateLimit
	Logger       *slog.Logger
}

// Run starts the daemon with the given configuration. It holds the
// runtime directory's writer lock until ctx is cancelled, so a second
// daemon on the same directory fails immediately.
func Run(ctx context.Context, cfg RunConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	// Wrap with context-aware handler to extract op_id from context.
	logger = manager.WithOpIDHandler(logger)

	dirs := cfg.Dirs
	if err := dirs.EnsureDirectories(); err != nil {
		return fmt.Errorf("runtime directory setup failed: %w", err)
	}

	return lock.TryRun(ctx, dirs.Lock(), func(ctx context.Context, scope lock.WriterScope) error {
		logger.Debug("holding writer lock", "path", dirs.Lock(), "fd", scope.FD())

		dbPath := cfg.StorePath
		if dbPath == "" {
			dbPath = dirs.DBPath()
		}
		st, err := sqlite.New(ctx, dbPath, logger)
		if err != nil {
			return fmt.Errorf("failed to open store at %s: %w", dbPath, err)
		}
		defer st.Close()

		mgr := manager.New(st, NewEvaluator(logger, cfg.RateLimit), logger)

		if cfg.PprofAddress != "" {
			if err := startPprof(ctx, cfg.PprofAddress, logger); err != nil {
				return err
			}
		} else {
			logger.Info("pprof HTTP server disabled")
		}

		return New(mgr, logger).serve(ctx, dirs.SocketPath(), cfg.TCPAddress)
	})
}

// NewEvaluator returns an evaluator over the default registry whose
// diagnostics go to logger under component "evaluator", with repeated
// messages suppressed according to limit.
func NewEvaluator(logger *slog.Logger, limit logging.RateLimit) *functional.Evaluator {
	handler := logger.Handler()
	if limit.Interval > 0 {
		handler = logging.NewRateLimitHandler(handler, limit)
	}
	diag := slog.New(handler).With("component", "evaluator")
	return functional.NewEvaluator(nil, diag)
}

func startPprof(ctx context.Context, addr string, logger *slog.Logger) error {
	pprofListener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof listen on %s: %w", addr, err)
	}
	pprofServer := &http.Server{}
	logger.Info("pprof HTTP server listening", "address", pprofListener.Addr().String())
	go func() {
		if err := pprofServer.Serve(pprofListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof HTTP server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		pprofServer.Close()
	}()
	return nil
}

// Server implements the pfq.lang.v1.Lang gRPC service.
type Server struct {
	pb.UnimplementedLangServer

	mgr       *manager.Manager
	logger    *slog.Logger
	opCounter atomic.Uint64
}

// New creates a server over mgr.
func New(mgr *manager.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		mgr:    mgr,
		logger: logger.With("component", "server"),
	}
}

// Register creates a gRPC server with the logging interceptor and
// registers s on it.
func (s *Server) Register(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(s.loggingInterceptor())}, opts...)
	grpcServer := grpc.NewServer(opts...)
	pb.RegisterLangServer(grpcServer, s)
	return grpcServer
}

// serve answers on the Unix socket, and on tcpAddr if set, until ctx is
// cancelled or a listener fails.
func (s *Server) serve(ctx context.Context, socketPath, tcpAddr string) error {
	listeners, err := listen(socketPath, tcpAddr)
	if err != nil {
		return err
	}

	grpcServer := s.Register()
	errc := make(chan error, len(listeners))
	for _, l := range listeners {
		go func() {
			s.logger.InfoContext(ctx, "gRPC server listening", "network", l.Addr().Network(), "address", l.Addr().String())
			errc <- grpcServer.Serve(l)
		}()
	}

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "shutting down gRPC server")
		grpcServer.GracefulStop()
		return nil
	case err := <-errc:
		grpcServer.Stop()
		return fmt.Errorf("serve: %w", err)
	}
}

// listen opens the daemon's listeners. The socket is group-writable so
// an unprivileged operator group can use the CLI with --remote.
func listen(socketPath, tcpAddr string) ([]net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	// A previous daemon may have left its socket behind; the writer
	// lock guarantees it is no longer serving.
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ul, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0660); err != nil {
		ul.Close()
		return nil, fmt.Errorf("chmod %s: %w", socketPath, err)
	}
	if tcpAddr == "" {
		return []net.Listener{ul}, nil
	}

	tl, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		ul.Close()
		return nil, fmt.Errorf("listen on %s: %w", tcpAddr, err)
	}
	return []net.Listener{ul, tl}, nil
}

// loggingInterceptor tags each call's context with a fresh op ID, so
// manager and store log lines for one request correlate, and logs the
// outcome.
func (s *Server) loggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = manager.ContextWithOpID(ctx, s.opCounter.Add(1))
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			s.logger.WarnContext(ctx, "request failed", "method", info.FullMethod, "code", status.Code(err), "error", err)
			return nil, err
		}
		s.logger.DebugContext(ctx, "request", "method", info.FullMethod, "elapsed", time.Since(start))
		return resp, nil
	}
}
