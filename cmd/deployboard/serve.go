package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pinterest/teletraan/pkg/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deploy board",
		Long: `Serve the deploy board over HTTP.

Pages are rendered on the server and kept live over a websocket. Data
comes from the deploy services when api.remote is set (or
CALL_REMOTE_APIS=true), otherwise from the fixture document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			m, reg := newMetrics(cfg)
			api, err := newAPI(cfg, m)
			if err != nil {
				return err
			}

			var opts []server.Option
			opts = append(opts, server.WithLogger(logger))
			if m != nil && metricsAddr == "" {
				opts = append(opts, server.WithMetrics(m, reg))
			} else if m != nil {
				// Collect only; the endpoint lives on its own listener.
				opts = append(opts, server.WithMetrics(m, nil))
			}
			srv := server.New(&server.Config{
				Address:        cfg.Server.Addr,
				RenderTimeout:  cfg.RenderTimeout(),
				TrustedProxies: cfg.Server.TrustedProxies,
			}, boardConfig(cfg, api, logger), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(ctx)
			})
			if metricsAddr != "" && reg != nil {
				g.Go(func() error {
					return serveMetrics(ctx, metricsAddr, reg)
				})
				logger.Info("metrics listener", "address", metricsAddr)
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on a separate address")

	return cmd
}

// serveMetrics serves the registry on its own listener until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
