package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/api"
	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/refresh"
	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/services/asnlookup"
	"github.com/tbckr/asnlook/internal/services/iplookup"
	"github.com/tbckr/asnlook/internal/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Serve lookups over HTTP and refresh the datasets periodically",
		GroupID: "dataset",
		Long: `Load the datasets, then serve the lookup API on --listen while the
datasets are refreshed every --refresh-interval.

Endpoints:
  GET  /v1/ip/{ip}     network and AS announcing an address
  GET  /v1/asn/{asn}   registered name and country of an AS number
  GET  /v1/status      snapshot statistics and refresh status
  POST /v1/refresh     queue an immediate refresh
  GET  /metrics        Prometheus metrics
  GET  /healthz        200 once a snapshot is loaded

A failed refresh keeps serving the previous snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, d)
		},
	}
}

func runServe(ctx context.Context, d *deps) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	metrics.SetUpGauge(reg, version.Version, version.Commit, version.Date)

	f, err := d.newFetcher()
	if err != nil {
		return err
	}
	r := resolver.New(nil)
	ds := d.newDataset(f, r, m)
	if err := ds.Refresh(ctx); err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	w := refresh.NewWorker(&refresh.WorkerConfig{
		Refresher: ds,
		Logger:    d.logger.With("component", "refresh"),
		Interval:  d.cfg.RefreshInterval,
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Handler: api.NewHandler(&api.Config{
			IP:        iplookup.NewService(r, m, d.logger),
			ASN:       asnlookup.NewService(r, m, d.logger),
			Readiness: r,
			Status:    ds,
			Trigger:   w,
			Gatherer:  reg,
			Logger:    d.logger.With("component", "api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", d.cfg.Listen)
	if err != nil {
		_ = w.Shutdown(context.Background())
		return fmt.Errorf("listening on %s: %w", d.cfg.Listen, err)
	}
	d.logger.Info("serving", "addr", ln.Addr().String(), "refresh_interval", d.cfg.RefreshInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		d.logger.Info("shutting down")
	case serveErr = <-errCh:
	}
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutting down http server: %w", err))
	}
	if err := w.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("stopping refresh worker: %w", err))
	}
	return serveErr
}
