package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"importctl/internal/job"
	"importctl/internal/progress"
	"importctl/internal/ui"
)

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "submit <file>",
		Short:         "Upload a .zip or .json file and watch the import",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path := args[0]
			st, err := os.Stat(path)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if st.IsDir() {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%s is a directory", path)}
			}
			return runSession(cmd, ui.Action{Path: path, Force: force})
		},
	}
	cmd.Flags().Bool("force", false, "Submit even if the server reports an import in progress")
	return cmd
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "resume",
		Short:         "Resume watching an import that is still running on the server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, ui.Action{})
		},
	}
}

// runSession drives one tracker session in the TUI or plain mode and maps how it ended to an exit code.
func runSession(cmd *cobra.Command, a ui.Action) error {
	e := mustEnv(cmd)
	cfg := ui.Config{Transport: newClient(e), Logger: e.logger}

	var out ui.Outcome
	if e.useTUI {
		var err error
		out, err = ui.Run(cmd.Context(), cfg, a)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else {
		out = ui.RunPlain(cmd.Context(), cmd.OutOrStdout(), cfg, a)
	}
	return outcomeError(out)
}

// outcomeError returns nil for a successful session. Messages already shown to
// the user are not repeated, so most ExitErrors carry no error text.
func outcomeError(out ui.Outcome) error {
	if out.Err != nil {
		var verr *job.ValidationError
		var uerr *job.UploadError
		switch {
		case errors.As(out.Err, &verr):
			return &ExitError{Code: ExitValidation}
		case out.Interrupted:
			return &ExitError{Code: ExitInterrupted}
		case errors.As(out.Err, &uerr):
			return &ExitError{Code: ExitUploadError}
		default:
			return &ExitError{Code: ExitCLIError, Err: out.Err}
		}
	}
	switch {
	case out.Blocked:
		return &ExitError{Code: ExitCLIError}
	case out.NothingToResume:
		return nil
	case out.Interrupted:
		return &ExitError{Code: ExitInterrupted}
	case out.State.Phase == progress.PhaseFailed:
		return &ExitError{Code: ExitJobFailed}
	}
	return nil
}
