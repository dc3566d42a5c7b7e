package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"importctl/internal/config"
	"importctl/internal/dirs"
	"importctl/internal/logging"
	"importctl/internal/model"
	"importctl/internal/transport"
	"importctl/internal/util"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitValidation  = 2
	ExitUploadError = 3
	ExitJobFailed   = 4
	ExitUnreachable = 5
	ExitInterrupted = 6
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

type ctxKey string

const envKey ctxKey = "env"

// env is what PersistentPreRunE resolves for every command.
type env struct {
	v       *viper.Viper
	opts    model.CLIOptions
	logger  *zap.Logger
	logFile string
	useTUI  bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "importctl",
		Short: "Upload data files for import and watch them being processed",
		Long: "importctl uploads a .zip or .json file to an import server and follows the job until the server " +
			"reports success or failure. Watching can be stopped at any time; 'importctl resume' picks the job up again.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupEnv,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := envFrom(cmd); ok {
				_ = e.logger.Sync()
			}
		},
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default: config.yaml in the user config dir)")
	pf.String("server", config.DefaultServer, "Import server base URL")
	pf.String("token", "", "Bearer token sent to the server")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for status requests (uploads are not limited)")
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.Bool("no-ui", false, "Disable TUI; use plain textual output")

	root.AddCommand(newSubmitCmd())
	root.AddCommand(newResumeCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

func setupEnv(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.Init(cmd.Flags(), cfgFile)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	opts := config.Options(v)
	server, err := util.NormalizeServerURL(opts.Server)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	opts.Server = server

	e := env{v: v, opts: opts, useTUI: !opts.NoUI && isTerminal()}

	// The TUI owns the terminal, so logs go to a file while it runs.
	output := logging.Stderr
	if e.useTUI {
		if p, ferr := dirs.LogFile(); ferr == nil {
			output = p
			e.logFile = p
		}
	}
	e.logger = logging.MustNew(opts.Verbose, output)
	e.logger.Debug("configuration resolved",
		zap.String("server", opts.Server),
		zap.Duration("timeout", opts.Timeout),
		zap.String("config_file", v.ConfigFileUsed()),
		zap.Bool("tui", e.useTUI))

	cmd.SetContext(context.WithValue(cmd.Context(), envKey, e))
	return nil
}

func envFrom(cmd *cobra.Command) (env, bool) {
	e, ok := cmd.Context().Value(envKey).(env)
	return e, ok
}

func mustEnv(cmd *cobra.Command) env {
	if e, ok := envFrom(cmd); ok {
		return e
	}
	return env{opts: model.CLIOptions{Server: config.DefaultServer, Timeout: config.DefaultTimeout}, logger: zap.NewNop()}
}

func newClient(e env) *transport.Client {
	return transport.New(e.opts.Server,
		transport.WithToken(e.opts.Token),
		transport.WithTimeout(e.opts.Timeout),
		transport.WithLogger(e.logger),
	)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var errUnreachable = errors.New("import server unreachable")
