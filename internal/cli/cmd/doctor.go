package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check configuration and import server reachability",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := mustEnv(cmd)
			w := cmd.OutOrStdout()

			cfgFile := "(none)"
			if e.v != nil && e.v.ConfigFileUsed() != "" {
				cfgFile = e.v.ConfigFileUsed()
			}
			fmt.Fprintf(w, "Config:  %s\n", cfgFile)
			if e.logFile != "" {
				fmt.Fprintf(w, "Log:     %s\n", e.logFile)
			}

			client := newClient(e)
			fmt.Fprintf(w, "Server:  %s\n", client.BaseURL())
			if err := client.Health(cmd.Context()); err != nil {
				return &ExitError{Code: ExitUnreachable, Err: fmt.Errorf("%w: %v", errUnreachable, err)}
			}
			fmt.Fprintln(w, "Health:  ok")
			return nil
		},
	}
}
