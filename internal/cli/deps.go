package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/config"
	"github.com/tbckr/asnlook/internal/fetch"
	"github.com/tbckr/asnlook/internal/httpclient"
	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/ranges"
	"github.com/tbckr/asnlook/internal/ratelimit"
	"github.com/tbckr/asnlook/internal/refresh"
	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/worker"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger  *slog.Logger
	cfg     *config.Config
	format  output.Format
	sources refresh.Sources
}

// buildDeps resolves config, logger, output format and dataset sources.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("--concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("--refresh-interval must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.FetchTimeout < 0 {
		return nil, fmt.Errorf("--fetch-timeout must not be negative, got %s", cfg.FetchTimeout)
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	v4Delim, err := ranges.ParseDelimiter(cfg.IPv4Delimiter)
	if err != nil {
		return nil, fmt.Errorf("ipv4_delimiter: %w", err)
	}
	v6Delim, err := ranges.ParseDelimiter(cfg.IPv6Delimiter)
	if err != nil {
		return nil, fmt.Errorf("ipv6_delimiter: %w", err)
	}

	return &deps{
		logger: logger,
		cfg:    cfg,
		format: format,
		sources: refresh.Sources{
			RegistryURL:   cfg.RegistryURL,
			IPv4URL:       cfg.IPv4URL,
			IPv6URL:       cfg.IPv6URL,
			IPv4Delimiter: v4Delim,
			IPv6Delimiter: v6Delim,
		},
	}, nil
}

// newHTTPClient creates an HTTP client configured with the proxy,
// user-agent, verbosity and request rate from the resolved config.
func (d *deps) newHTTPClient() (*req.Client, error) {
	client, err := httpclient.New(d.cfg.Proxy, d.cfg.UserAgent, d.logger, d.cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	httpclient.AttachRateLimit(client, ratelimit.New(d.cfg.RateLimit, 1), d.logger)
	return client, nil
}

// newFetcher creates the cache-aware dataset fetcher.
func (d *deps) newFetcher() (*fetch.Fetcher, error) {
	client, err := d.newHTTPClient()
	if err != nil {
		return nil, err
	}
	return fetch.New(client, fetch.Config{
		CacheDir: d.cfg.CacheDir,
		Offline:  d.cfg.Offline,
		Logger:   d.logger,
	}), nil
}

// newDataset wires a refresher that publishes into r. m may be nil.
func (d *deps) newDataset(f refresh.Fetcher, r *resolver.Resolver, m *metrics.Metrics) *refresh.Dataset {
	return refresh.NewDataset(&refresh.Config{
		Fetcher:  f,
		Resolver: r,
		Logger:   d.logger,
		Metrics:  m,
		Sources:  d.sources,
		Timeout:  d.cfg.FetchTimeout,
	})
}

// loadResolver runs one refresh cycle and returns a resolver serving its
// snapshot.
func (d *deps) loadResolver(ctx context.Context) (*resolver.Resolver, error) {
	f, err := d.newFetcher()
	if err != nil {
		return nil, err
	}
	r := resolver.New(nil)
	if err := d.newDataset(f, r, nil).Refresh(ctx); err != nil {
		return nil, fmt.Errorf("loading datasets: %w", err)
	}
	return r, nil
}

// resolveInputs returns positional args, or reads inputs from stdin when no
// args are provided. An interactive stdin with no args is an error.
func resolveInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	r := cmd.InOrStdin()
	if output.IsTerminal(r) {
		return nil, fmt.Errorf("no input: pass an argument or pipe stdin")
	}
	return worker.ReadInputs(r)
}

// writeResult formats and writes a result to w.
func writeResult(w io.Writer, d *deps, result any) error {
	if err := output.Write(w, d.format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
