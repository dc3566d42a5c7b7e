// Package logging builds the zap logger shared by commands.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stderr is the output path used when no log file is requested.
const Stderr = "stderr"

// New returns a logger writing to output ("stderr" or a file path). Verbose
// mode switches to a human-readable console encoder at debug level; otherwise
// only warnings and errors are emitted as JSON.
func New(verbose bool, output string) (*zap.Logger, error) {
	if output == "" {
		output = Stderr
	}
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{Stderr}
	return cfg.Build()
}

// MustNew is New that falls back to a no-op logger on error.
func MustNew(verbose bool, output string) *zap.Logger {
	l, err := New(verbose, output)
	if err != nil {
		_, _ = os.Stderr.WriteString("warning: logger setup failed: " + err.Error() + "\n")
		return zap.NewNop()
	}
	return l
}
