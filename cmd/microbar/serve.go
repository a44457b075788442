package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// newServeCmd reproduces the teacher's main.go HTTP surface: a /healthz
// liveness probe and a /metrics Prometheus endpoint, kept running until
// SIGINT/SIGTERM with the same 2-second graceful shutdown budget.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the /healthz and /metrics HTTP server for a long-running ingestion daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok\n"))
			})
			mux.Handle("/metrics", promhttp.Handler())

			srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Port).Msg("serving /healthz and /metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}

			shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
			defer c()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
