// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tbckr/asnlook/internal/apperr"
)

// MockFetcher serves canned dataset bodies keyed by URL. Set FetchFn to
// override the behaviour for every URL.
type MockFetcher struct {
	FetchFn func(ctx context.Context, url string) ([]byte, error)

	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  map[string]int
}

// Set makes url return body.
func (m *MockFetcher) Set(url string, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bodies == nil {
		m.bodies = make(map[string][]byte)
	}
	m.bodies[url] = []byte(body)
	delete(m.errs, url)
}

// Fail makes url return err.
func (m *MockFetcher) Fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = make(map[string]error)
	}
	m.errs[url] = err
}

// Calls returns how often url has been fetched.
func (m *MockFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// Fetch implements the refresh fetcher contract.
func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[url]++
	fn := m.FetchFn
	err, failed := m.errs[url]
	body, ok := m.bodies[url]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, url)
	}
	if failed {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no mock body for %s", apperr.ErrRequestFailed, url)
	}
	return body, nil
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
