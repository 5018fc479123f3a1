package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/imroc/req/v3"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/asnlook/internal/apperr"
	"github.com/tbckr/asnlook/internal/fetch"
	"github.com/tbckr/asnlook/internal/testutil"
)

const registryURL = "https://ftp.example.net/ripe/asnames/asn.txt"

var fetchedAt = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T, cfg fetch.Config) *fetch.Fetcher {
	t.Helper()
	client := req.NewClient()
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	cfg.Logger = testutil.NopLogger()
	cfg.Now = func() time.Time { return fetchedAt }
	return fetch.New(client, cfg)
}

func TestFetch_NoCache(t *testing.T) {
	f := setup(t, fetch.Config{})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		httpmock.NewStringResponder(http.StatusOK, "13335 CLOUDFLARENET, US\n"))

	data, err := f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
	assert.Equal(t, "13335 CLOUDFLARENET, US\n", string(data))

	_, ok := f.Cached(registryURL)
	assert.False(t, ok)
}

func TestFetch_StoresAndRevalidates(t *testing.T) {
	dir := t.TempDir()
	f := setup(t, fetch.Config{CacheDir: dir})

	calls := 0
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		func(r *http.Request) (*http.Response, error) {
			calls++
			if r.Header.Get("If-None-Match") == `"v1"` {
				return httpmock.NewStringResponse(http.StatusNotModified, ""), nil
			}
			resp := httpmock.NewStringResponse(http.StatusOK, "13335 CLOUDFLARENET, US\n")
			resp.Header.Set("ETag", `"v1"`)
			resp.Header.Set("Last-Modified", "Wed, 30 Sep 2026 00:00:00 GMT")
			return resp, nil
		})

	first, err := f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)

	meta, ok := f.Cached(registryURL)
	require.True(t, ok)
	assert.Equal(t, fetch.Meta{
		URL:          registryURL,
		ETag:         `"v1"`,
		LastModified: "Wed, 30 Sep 2026 00:00:00 GMT",
		FetchedAt:    fetchedAt,
	}, meta)

	second, err := f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, calls)

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFetch_SendsIfModifiedSince(t *testing.T) {
	f := setup(t, fetch.Config{CacheDir: t.TempDir()})

	var got string
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		func(r *http.Request) (*http.Response, error) {
			got = r.Header.Get("If-Modified-Since")
			resp := httpmock.NewStringResponse(http.StatusOK, "1 LVLT-1, US\n")
			resp.Header.Set("Last-Modified", "Tue, 29 Sep 2026 00:00:00 GMT")
			return resp, nil
		})

	_, err := f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
	assert.Equal(t, "Tue, 29 Sep 2026 00:00:00 GMT", got)
}

func TestFetch_StatusError(t *testing.T) {
	f := setup(t, fetch.Config{CacheDir: t.TempDir()})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := f.Fetch(context.Background(), registryURL)
	require.ErrorIs(t, err, apperr.ErrRequestFailed)
	assert.Contains(t, err.Error(), "HTTP 500")

	_, ok := f.Cached(registryURL)
	assert.False(t, ok)
}

func TestFetch_NotModifiedWithoutCache(t *testing.T) {
	f := setup(t, fetch.Config{CacheDir: t.TempDir()})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		httpmock.NewStringResponder(http.StatusNotModified, ""))

	_, err := f.Fetch(context.Background(), registryURL)
	require.ErrorIs(t, err, apperr.ErrRequestFailed)
}

func TestFetch_TransportError(t *testing.T) {
	f := setup(t, fetch.Config{})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := f.Fetch(context.Background(), registryURL)
	require.ErrorIs(t, err, apperr.ErrRequestFailed)
}

func TestFetch_Offline(t *testing.T) {
	dir := t.TempDir()
	online := setup(t, fetch.Config{CacheDir: dir})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		httpmock.NewStringResponder(http.StatusOK, "15169 GOOGLE, US\n"))
	_, err := online.Fetch(context.Background(), registryURL)
	require.NoError(t, err)

	offline := setup(t, fetch.Config{CacheDir: dir, Offline: true})
	httpmock.ZeroCallCounters()
	data, err := offline.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
	assert.Equal(t, "15169 GOOGLE, US\n", string(data))
	assert.Zero(t, httpmock.GetTotalCallCount())

	_, err = offline.Fetch(context.Background(), "https://example.com/other")
	require.ErrorIs(t, err, apperr.ErrRequestFailed)
}

func TestFetch_OfflineWithoutCacheDir(t *testing.T) {
	f := setup(t, fetch.Config{Offline: true})
	_, err := f.Fetch(context.Background(), registryURL)
	require.ErrorIs(t, err, apperr.ErrRequestFailed)
}

func TestFetch_CorruptMetaIgnored(t *testing.T) {
	dir := t.TempDir()
	f := setup(t, fetch.Config{CacheDir: dir})
	httpmock.RegisterResponder(http.MethodGet, registryURL,
		func(r *http.Request) (*http.Response, error) {
			assert.Empty(t, r.Header.Get("If-None-Match"))
			return httpmock.NewStringResponse(http.StatusOK, "body"), nil
		})

	_, err := f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)

	metas, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.NoError(t, os.WriteFile(metas[0], []byte("{not json"), 0o600))

	_, ok := f.Cached(registryURL)
	assert.False(t, ok)
	_, err = f.Fetch(context.Background(), registryURL)
	require.NoError(t, err)
}
