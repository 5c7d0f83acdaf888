package client

import (
	"log/slog"

	"github.com/frobware/go-pfq/config"
)

// DefaultSocketPath is where a daemon started with the default runtime
// directory listens.
func DefaultSocketPath() string {
	return config.DefaultRuntimeDirs().SocketPath()
}

type options struct {
	logger     *slog.Logger
	runtimeDir string
	config     config.Config
	hasConfig  bool
}

// Option configures Dial or Open.
type Option func(*options)

// WithLogger sets the client's logger. Output is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRuntimeDir sets the runtime directory Open serves from,
// overriding the configuration's [server] runtime_dir. Dial ignores it.
func WithRuntimeDir(path string) Option {
	return func(o *options) { o.runtimeDir = path }
}

// WithConfig sets the configuration Open uses for its store path and
// diagnostic rate limit. The embedded defaults apply otherwise. Dial
// ignores it.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.config, o.hasConfig = cfg, true }
}

func collect(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasConfig {
		o.config = config.DefaultConfig()
	}
	if o.runtimeDir == "" {
		o.runtimeDir = o.config.Server.RuntimeDir
	}
	if o.runtimeDir == "" {
		o.runtimeDir = config.DefaultRuntimeDir
	}
	return o
}

// Dial connects to a daemon. address is host:port for TCP, or a Unix
// socket as unix:///path or a bare absolute path. The connection is
// established lazily on the first call.
func Dial(address string, opts ...Option) (Client, error) {
	o := collect(opts)
	return newRemote(address, o.logger)
}

// Open serves the local store through an in-process server on a
// private socket, so local use runs the same handlers as a daemon:
//
//	c, err := client.Open(client.WithRuntimeDir("/tmp/pfq"))
//
// Close the client to stop the server and close the store.
func Open(opts ...Option) (Client, error) {
	o := collect(opts)
	dirs, err := config.NewRuntimeDirs(o.runtimeDir)
	if err != nil {
		return nil, err
	}
	return newEphemeral(dirs, o.config, o.logger)
}
