// Package refresh rebuilds the dataset snapshot from its sources and
// publishes it to the resolver, on demand or on a schedule.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbckr/asnlook/internal/apperr"
	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/snapshot"
)

// Fetcher downloads the raw content of a dataset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sources locates the three datasets.
type Sources struct {
	RegistryURL string
	IPv4URL     string
	IPv6URL     string

	// IPv4Delimiter and IPv6Delimiter separate fields of the range tables.
	IPv4Delimiter string
	IPv6Delimiter string
}

// Config is the configuration structure for a *Dataset.
type Config struct {
	Fetcher  Fetcher
	Resolver *resolver.Resolver
	Logger   *slog.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics

	Sources Sources

	// Timeout bounds one cycle including all downloads. Zero means no
	// timeout beyond the caller's context.
	Timeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Status describes the outcome of recent refresh cycles.
type Status struct {
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Running     bool      `json:"running"`
}

// Dataset refreshes the resolver's snapshot. At most one cycle runs at a
// time.
type Dataset struct {
	fetcher  Fetcher
	resolver *resolver.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	sources  Sources
	timeout  time.Duration
	now      func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	status Status
}

// type check
var _ Refresher = (*Dataset)(nil)

// NewDataset returns a *Dataset for c. c must not be nil and c.Fetcher and
// c.Resolver must be set.
func NewDataset(c *Config) *Dataset {
	d := &Dataset{
		fetcher:  c.Fetcher,
		resolver: c.Resolver,
		logger:   c.Logger,
		metrics:  c.Metrics,
		sources:  c.Sources,
		timeout:  c.Timeout,
		now:      c.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Refresh downloads all datasets, builds a new snapshot and publishes it. On
// any failure the active snapshot stays in place. A call made while another
// cycle is running returns apperr.ErrRefreshInProgress immediately.
func (d *Dataset) Refresh(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		d.metrics.ObserveRefresh(0, apperr.ErrRefreshInProgress, d.now())
		return apperr.ErrRefreshInProgress
	}
	defer d.running.Store(false)

	start := d.now()
	snap, err := d.build(ctx)
	end := d.now()
	d.metrics.ObserveRefresh(end.Sub(start), err, end)

	d.mu.Lock()
	d.status.LastAttempt = end
	if err != nil {
		d.status.LastError = err.Error()
	} else {
		d.status.LastError = ""
		d.status.LastSuccess = end
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.ErrorContext(ctx, "refresh failed, keeping previous dataset",
			"error", err,
			"have_previous", d.resolver.Ready(),
		)
		return err
	}

	d.resolver.Swap(snap)
	stats := snap.Stats()
	d.metrics.ObserveSnapshot(stats)
	d.logger.InfoContext(ctx, "dataset refreshed",
		"asns", stats.ASNs,
		"ipv4_ranges", stats.IPv4Ranges,
		"ipv6_ranges", stats.IPv6Ranges,
		"unknown_owners", stats.UnknownOwners,
		"duration", end.Sub(start).Round(time.Millisecond),
	)
	return nil
}

func (d *Dataset) build(ctx context.Context) (*snapshot.Snapshot, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	src := snapshot.Source{
		IPv4Delimiter: d.sources.IPv4Delimiter,
		IPv6Delimiter: d.sources.IPv6Delimiter,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range []struct {
		url string
		dst *[]byte
	}{
		{d.sources.RegistryURL, &src.Registry},
		{d.sources.IPv4URL, &src.IPv4},
		{d.sources.IPv6URL, &src.IPv6},
	} {
		g.Go(func() error {
			data, err := d.fetcher.Fetch(gctx, job.url)
			if err != nil {
				return err
			}
			*job.dst = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching datasets: %w", err)
	}

	snap, err := snapshot.Build(src, d.now)
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}
	return snap, nil
}

// Status returns the outcome of recent cycles.
func (d *Dataset) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.status
	s.Running = d.running.Load()
	return s
}
