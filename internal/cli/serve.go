package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/chessdash/internal/api"
	"github.com/vytor/chessdash/internal/worker"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			pool := worker.NewPool(a.cfg.DispatchWorkerCount, a.cfg.DispatchQueueSize)
			d, err := a.dashboard(pool)
			if err != nil {
				return err
			}
			srv := &api.Server{Dashboard: d}
			return a.listen(cmd.Context(), a.cfg.Addr, srv.Routes(), pool)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

// listen serves h until SIGINT or SIGTERM, then drains the HTTP server and
// the pool, if any.
func (a *app) listen(ctx context.Context, addr string, h http.Handler, pool *worker.Pool) error {
	log := a.log
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if pool != nil {
		pool.Start(workerCtx)
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error("HTTP server error: %v", err)
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown requested, draining connections")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}
	if pool != nil {
		log.Debug("stopping dispatch pool")
		cancel()
		pool.Stop()
	}
	log.Info("server stopped")
	return nil
}
