package terminal

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/commands"
	"github.com/de-tools/finops-sentinel/pkg/runtime/terminal/export"
)

const defaultTimeout = 5 * time.Minute

// GlobalOptions are the persistent flags every command shares.
type GlobalOptions struct {
	ConfigPath string
	Profiles   []string
	Format     string
	LogLevel   string
	Timeout    time.Duration
}

// BootstrapFunc builds the command environment. The returned close function releases its resources.
type BootstrapFunc func(ctx context.Context, opts GlobalOptions) (*commands.Env, func() error, error)

// CLI represents the command-line interface
type CLI struct {
	bootstrap BootstrapFunc
	reporter  *export.Reporter
	logOutput io.Writer
	opts      GlobalOptions
	env       *commands.Env
	closeEnv  func() error
	rootCmd   *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Bootstrap BootstrapFunc
	Output    io.Writer
	// LogOutput receives the structured logs (default: stderr).
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		bootstrap: opts.Bootstrap,
		reporter:  export.NewReporter(opts.Output),
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	err := cli.rootCmd.ExecuteContext(ctx)
	if cli.closeEnv != nil {
		err = errors.Join(err, cli.closeEnv())
	}
	return err
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "finops",
		Short:         "Multi-cloud cost anomaly, waste and governance analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.opts.ConfigPath, "config", "c", "", "Path to finops.yaml (default: ./finops.yaml or ~/.finops/finops.yaml)")
	flags.StringSliceVarP(&cli.opts.Profiles, "profile", "p", nil, "Profiles to load from the profile file (default: all)")
	flags.StringVar(&cli.opts.Format, "format", string(export.FormatTable), "Output format: table, json or markdown")
	flags.StringVar(&cli.opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error (default: info)")
	flags.DurationVar(&cli.opts.Timeout, "timeout", defaultTimeout, "Overall deadline of the command")

	cmd.AddCommand(commands.NewAnomaliesCmd(cli))
	cmd.AddCommand(commands.NewAuditCmd(cli))
	cmd.AddCommand(commands.NewBudgetCmd(cli))
	cmd.AddCommand(commands.NewGovernanceCmd(cli))
	cmd.AddCommand(commands.NewOverlayCmd(cli))
	cmd.AddCommand(commands.NewSummaryCmd(cli))

	return cmd
}

// Context returns the command context carrying the logger, bounded by --timeout.
func (cli *CLI) Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	level := zerolog.InfoLevel
	if cli.opts.LogLevel != "" {
		if l, err := zerolog.ParseLevel(cli.opts.LogLevel); err == nil {
			level = l
		}
	}
	logger := zerolog.New(cli.logOutput).Level(level).With().Timestamp().Str("command", cmd.Name()).Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx)
	if cli.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cli.opts.Timeout)
}

func (cli *CLI) Env(ctx context.Context) (*commands.Env, error) {
	if cli.env != nil {
		return cli.env, nil
	}
	if cli.bootstrap == nil {
		return nil, errors.New("no bootstrap configured")
	}
	env, closeFn, err := cli.bootstrap(ctx, cli.opts)
	if err != nil {
		return nil, err
	}
	cli.env, cli.closeEnv = env, closeFn
	return env, nil
}

func (cli *CLI) Reporter() (*export.Reporter, error) {
	f, err := export.ParseFormat(cli.opts.Format)
	if err != nil {
		return nil, err
	}
	return cli.reporter.WithFormat(f), nil
}
