// Package fetch downloads dataset files over HTTP and keeps a conditional-GET
// cache of them on disk.
//
// Each URL is cached as two files named after the xxhash of the URL: the
// body (<hash>.data) and its validators (<hash>.json). Both are replaced
// atomically so a crash never leaves a truncated dataset behind.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/renameio/v2"
	"github.com/imroc/req/v3"

	"github.com/tbckr/asnlook/internal/apperr"
)

// Meta holds the validators of a cached response.
type Meta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Config configures a Fetcher.
type Config struct {
	// CacheDir holds cached datasets. Empty disables caching; every fetch is
	// then a plain GET.
	CacheDir string

	// Offline serves datasets from CacheDir only and never touches the
	// network.
	Offline bool

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Fetcher downloads datasets through a req client.
type Fetcher struct {
	client   *req.Client
	cacheDir string
	offline  bool
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a Fetcher using client for network access.
func New(client *req.Client, cfg Config) *Fetcher {
	f := &Fetcher{
		client:   client,
		cacheDir: cfg.CacheDir,
		offline:  cfg.Offline,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// Fetch returns the body of url. Network and status failures wrap
// apperr.ErrRequestFailed. A 304 response is answered from the cache.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.offline {
		return f.fetchOffline(url)
	}

	r := f.client.R().SetContext(ctx)

	meta, cached := f.cachedMeta(url)
	if cached {
		if meta.ETag != "" {
			r.SetHeader("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			r.SetHeader("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := r.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", apperr.ErrRequestFailed, url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotModified && cached:
		data, err := os.ReadFile(f.dataPath(url))
		if err != nil {
			return nil, fmt.Errorf("reading cached %s: %w", url, err)
		}
		f.logger.Debug("dataset not modified", "url", url, "fetched_at", meta.FetchedAt)
		return data, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", apperr.ErrRequestFailed, url, resp.StatusCode)
	}

	data, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of %s: %w", apperr.ErrRequestFailed, url, err)
	}

	if f.cacheDir != "" {
		m := Meta{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			FetchedAt:    f.now().UTC(),
		}
		if err := f.store(m, data); err != nil {
			// The download itself succeeded; only the next conditional GET is lost.
			f.logger.Warn("caching dataset failed", "url", url, "error", err)
		}
	}

	f.logger.Debug("dataset downloaded", "url", url, "bytes", len(data))
	return data, nil
}

func (f *Fetcher) fetchOffline(url string) ([]byte, error) {
	if f.cacheDir == "" {
		return nil, fmt.Errorf("%w: offline mode needs a cache directory", apperr.ErrRequestFailed)
	}
	data, err := os.ReadFile(f.dataPath(url))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s is not cached (offline)", apperr.ErrRequestFailed, url)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached %s: %w", url, err)
	}
	return data, nil
}

// Cached returns the validators stored for url, if the body is cached too.
func (f *Fetcher) Cached(url string) (Meta, bool) {
	return f.cachedMeta(url)
}

func (f *Fetcher) cachedMeta(url string) (Meta, bool) {
	if f.cacheDir == "" {
		return Meta{}, false
	}
	raw, err := os.ReadFile(f.metaPath(url))
	if err != nil {
		return Meta{}, false
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil || m.URL != url {
		return Meta{}, false
	}
	if _, err := os.Stat(f.dataPath(url)); err != nil {
		return Meta{}, false
	}
	return m, true
}

// store writes the body before the validators so validators never describe a
// body that is not on disk.
func (f *Fetcher) store(m Meta, data []byte) error {
	if err := os.MkdirAll(f.cacheDir, 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := renameio.WriteFile(f.dataPath(m.URL), data, 0o600); err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	if err := renameio.WriteFile(f.metaPath(m.URL), raw, 0o600); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}
	return nil
}

func (f *Fetcher) key(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url))
}

func (f *Fetcher) dataPath(url string) string {
	return filepath.Join(f.cacheDir, f.key(url)+".data")
}

func (f *Fetcher) metaPath(url string) string {
	return filepath.Join(f.cacheDir, f.key(url)+".json")
}
