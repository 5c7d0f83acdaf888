package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-pfq/client"
	"github.com/frobware/go-pfq/config"
	"github.com/frobware/go-pfq/lock"
	"github.com/frobware/go-pfq/logging"
)

// CLI is the root command structure for pfq-lang.
type CLI struct {
	DB         DBPath `name:"db" help:"SQLite database path (overrides [store] path)."`
	Config     string `name:"config" help:"Config file path." default:"${default_config_path}"`
	RuntimeDir string `name:"runtime-dir" help:"Runtime directory (overrides [server] runtime_dir)."`
	Log        string `name:"log" help:"Log spec (e.g., 'info,evaluator=debug'). Overrides ${log_env}."`
	Remote     string `name:"remote" short:"r" help:"Remote endpoint (unix:///path or host:port). Talks to a daemon instead of the local store."`

	Serve  ServeCmd  `cmd:"" help:"Start the gRPC daemon."`
	Bind   BindCmd   `cmd:"" help:"Parse and type an expression without storing it."`
	Eval   EvalCmd   `cmd:"" help:"Evaluate stored compositions or an expression against packet metadata."`
	Save   SaveCmd   `cmd:"" help:"Compile and store an expression under a name."`
	Get    GetCmd    `cmd:"" help:"Show a stored composition."`
	List   ListCmd   `cmd:"" help:"List stored compositions."`
	Delete DeleteCmd `cmd:"" help:"Delete a stored composition."`
	XDP    XDPCmd    `cmd:"" name:"xdp" help:"Lower a stored composition to XDP and optionally attach it."`

	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer `kong:"-"`
}

// KongOptions returns the Kong configuration options for the CLI.
func KongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("pfq-lang"),
		kong.Description("Build, store and evaluate PFQ/lang compositions."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.TypeMapper(reflect.TypeOf(KeyValue{}), keyValueMapper()),
		kong.TypeMapper(reflect.TypeOf(DBPath{}), dbPathMapper()),
		kong.TypeMapper(reflect.TypeOf(Mask(0)), maskMapper()),
		kong.TypeMapper(reflect.TypeOf(VerdictName{}), verdictMapper()),
		kong.Vars{
			"default_config_path": config.DefaultConfigPath,
			"log_env":             logging.EnvVar,
		},
	}
}

// LoadConfig loads the configuration from the config file path and
// applies the root flag overrides.
func (c *CLI) LoadConfig() (config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return cfg, err
	}
	if c.DB.Path != "" {
		cfg.Store.Path = c.DB.Path
	}
	if c.RuntimeDir != "" {
		cfg.Server.RuntimeDir = c.RuntimeDir
	}
	return cfg, nil
}

// RuntimeDirs returns the runtime directories selected by config and
// flags.
func (c *CLI) RuntimeDirs() (config.RuntimeDirs, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return config.RuntimeDirs{}, err
	}
	return config.NewRuntimeDirs(cfg.Server.RuntimeDir)
}

// Logger creates a logger for CLI commands.
// CLI commands default to WARN level for quieter output.
// Use LoggerFromConfig for long-running services like serve.
func (c *CLI) Logger() (*slog.Logger, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	// CLI commands default to warn unless --log or the environment
	// says otherwise.
	spec := c.Log
	env := os.Getenv(logging.EnvVar)
	if spec == "" && env == "" {
		spec = "warn"
	}

	return logging.New(logging.Options{
		CLISpec:    spec,
		EnvSpec:    env,
		ConfigSpec: cfg.Logging.ToSpec(),
		Format:     format,
		Output:     os.Stderr,
	})
}

// LoggerFromConfig creates a logger using config file settings.
// Used by long-running services (serve) where INFO level is appropriate.
// Output goes to stdout for daemon/container log collection.
func (c *CLI) LoggerFromConfig() (*slog.Logger, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Options{
		CLISpec:    c.Log,
		EnvSpec:    os.Getenv(logging.EnvVar),
		ConfigSpec: cfg.Logging.ToSpec(),
		Format:     format,
		Output:     os.Stdout,
	})
}

// Client returns a client appropriate for the configured transport.
// If --remote is set, the client talks to that daemon. Otherwise it
// serves the local store in-process.
// The returned client must be closed when no longer needed.
func (c *CLI) Client() (client.Client, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	if c.Remote != "" {
		return client.Dial(c.Remote, client.WithLogger(logger))
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	return client.Open(
		client.WithRuntimeDir(cfg.Server.RuntimeDir),
		client.WithConfig(cfg),
		client.WithLogger(logger),
	)
}

// WithClient runs fn with a read-only client.
func (c *CLI) WithClient(fn func(client.Client) error) error {
	b, err := c.Client()
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer b.Close()
	return fn(b)
}

// WithWriter runs fn with a client that may modify the store. Local
// writes hold the runtime directory's writer lock, so they fail fast
// while a daemon owns the store.
func (c *CLI) WithWriter(ctx context.Context, fn func(client.Client) error) error {
	if c.Remote != "" {
		return c.WithClient(fn)
	}

	dirs, err := c.RuntimeDirs()
	if err != nil {
		return err
	}
	if err := dirs.EnsureDirectories(); err != nil {
		return err
	}

	err = lock.TryRun(ctx, dirs.Lock(), func(context.Context, lock.WriterScope) error {
		return c.WithClient(fn)
	})
	if errors.As(err, new(lock.ErrLocked)) {
		return fmt.Errorf("%w (is a daemon running? use --remote)", err)
	}
	return err
}

func (c *CLI) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// WriteOut writes p to the command output, treating a short write as
// an error.
func (c *CLI) WriteOut(p []byte) error {
	n, err := c.out().Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// PrintOut writes s to the command output.
func (c *CLI) PrintOut(s string) error {
	return c.WriteOut([]byte(s))
}

// PrintOutf formats according to format and writes to the command
// output.
func (c *CLI) PrintOutf(format string, args ...any) error {
	return c.PrintOut(fmt.Sprintf(format, args...))
}
