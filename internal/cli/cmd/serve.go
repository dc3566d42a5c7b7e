package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"importctl/internal/backend"
	"importctl/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the reference import server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := mustEnv(cmd)
			addr, _ := cmd.Flags().GetString("addr")
			delay, _ := cmd.Flags().GetDuration("processing-time")

			// Request logs are the point of a foreground server; always go to stderr.
			logger := logging.MustNew(e.opts.Verbose, logging.Stderr)
			defer func() { _ = logger.Sync() }()
			if !e.opts.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := backend.NewServer(backend.Options{ProcessingTime: delay, Logger: logger})
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving imports on http://%s\n", ln.Addr())
			if err := serve(cmd.Context(), ln, srv, logger); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().Duration("processing-time", 3*time.Second, "Simulated processing time per import")
	return cmd
}

// serve runs the backend on ln until ctx is cancelled, then drains requests and jobs.
func serve(ctx context.Context, ln net.Listener, srv *backend.Server, logger *zap.Logger) error {
	hs := &http.Server{
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return err
	}
	srv.Store().Wait()
	return nil
}
