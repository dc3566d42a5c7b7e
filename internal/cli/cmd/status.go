package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"importctl/internal/model"
	"importctl/internal/transport"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show whether an import is running and the latest result",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := mustEnv(cmd)
			client := newClient(e)
			w := cmd.OutOrStdout()

			pending, err := client.CheckPending(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitUnreachable, Err: fmt.Errorf("%w: %v", errUnreachable, err)}
			}
			fmt.Fprintf(w, "Server:      %s\n", client.BaseURL())
			fmt.Fprintf(w, "Running:     %s\n", yesNo(pending))

			res, err := client.Poll(cmd.Context())
			var apiErr *transport.APIError
			switch {
			case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
				fmt.Fprintln(w, "Last result: none")
			case err != nil:
				return &ExitError{Code: ExitUnreachable, Err: fmt.Errorf("%w: %v", errUnreachable, err)}
			default:
				fmt.Fprintf(w, "Last result: %s\n", describeResult(res))
			}
			return nil
		},
	}
}

func describeResult(res model.PollResult) string {
	switch res.Status {
	case model.StatusInProgress:
		return "in progress"
	case model.StatusSucceeded:
		return "succeeded"
	case model.StatusFailed:
		if res.Reason != "" {
			return "failed: " + res.Reason
		}
		return "failed"
	default:
		return fmt.Sprintf("unknown (%d)", int(res.Status))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
