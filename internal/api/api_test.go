package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/asnlook/internal/api"
	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/refresh"
	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/services/asnlookup"
	"github.com/tbckr/asnlook/internal/services/iplookup"
	"github.com/tbckr/asnlook/internal/snapshot"
	"github.com/tbckr/asnlook/internal/testutil"
)

var builtAt = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fakeTrigger struct{ calls int }

func (f *fakeTrigger) Trigger() bool {
	f.calls++
	return f.calls == 1
}

type fixedStatus refresh.Status

func (s fixedStatus) Status() refresh.Status { return refresh.Status(s) }

func newSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	snap, err := snapshot.Build(snapshot.Source{
		Registry:      []byte("13335 CLOUDFLARENET, US\n15169 GOOGLE, US\n"),
		IPv4:          []byte("1.1.1.0/24\t13335\n8.8.8.0/24\t15169\n"),
		IPv6:          []byte("2606:4700::/32 13335\n"),
		IPv4Delimiter: "\t",
		IPv6Delimiter: " ",
	}, func() time.Time { return builtAt })
	require.NoError(t, err)
	return snap
}

type env struct {
	handler  http.Handler
	resolver *resolver.Resolver
	trigger  *fakeTrigger
	registry *prometheus.Registry
}

func newEnv(t *testing.T, snap *snapshot.Snapshot) *env {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := resolver.New(snap)
	trig := &fakeTrigger{}
	h := api.NewHandler(&api.Config{
		IP:        iplookup.NewService(r, m, testutil.NopLogger()),
		ASN:       asnlookup.NewService(r, m, testutil.NopLogger()),
		Readiness: r,
		Status:    fixedStatus{LastSuccess: builtAt},
		Trigger:   trig,
		Gatherer:  reg,
		Logger:    testutil.NopLogger(),
	})
	return &env{handler: h, resolver: r, trigger: trig, registry: reg}
}

func (e *env) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestIP(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodGet, "/v1/ip/1.1.1.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got iplookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1.1.1.0/24", got.Network)
	assert.Equal(t, "AS13335", got.ASN)
	assert.Equal(t, "US", got.Country)
}

func TestIP_IPv6(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodGet, "/v1/ip/2606:4700::1111")
	require.Equal(t, http.StatusOK, rec.Code)

	var got iplookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2606:4700::/32", got.Network)
}

func TestLookupErrors(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	tests := []struct {
		name string
		path string
		code int
		msg  string
	}{
		{"ip not announced", "/v1/ip/192.0.2.1", http.StatusNotFound, "no match"},
		{"ip invalid", "/v1/ip/not-an-ip", http.StatusBadRequest, "invalid input"},
		{"asn not registered", "/v1/asn/AS64512", http.StatusNotFound, "no match"},
		{"asn invalid", "/v1/asn/ASX", http.StatusBadRequest, "invalid input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, tc.path)
			assert.Equal(t, tc.code, rec.Code)

			var got api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got.Error, tc.msg)
			assert.NotEmpty(t, got.Input)
		})
	}
}

func TestASN(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodGet, "/v1/asn/as15169")
	require.Equal(t, http.StatusOK, rec.Code)

	var got asnlookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AS15169", got.ASN)
	assert.Equal(t, "GOOGLE,", got.Name)
}

func TestNoSnapshot(t *testing.T) {
	e := newEnv(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/v1/ip/1.1.1.1").Code)
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/v1/asn/13335").Code)
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/healthz").Code)

	rec := e.do(t, http.MethodGet, "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Ready)
	assert.Nil(t, got.Snapshot)
}

func TestStatus(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodGet, "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Ready)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, 2, got.Snapshot.ASNs)
	assert.Equal(t, 2, got.Snapshot.IPv4Ranges)
	assert.Equal(t, 1, got.Snapshot.IPv6Ranges)
	assert.True(t, builtAt.Equal(got.Snapshot.BuiltAt))
	assert.True(t, builtAt.Equal(got.Refresh.LastSuccess))
}

func TestRefresh(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodPost, "/v1/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var got api.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Queued)

	rec = e.do(t, http.MethodPost, "/v1/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Queued)
	assert.Equal(t, 2, e.trigger.calls)

	assert.Equal(t, http.StatusMethodNotAllowed, e.do(t, http.MethodGet, "/v1/refresh").Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, newSnapshot(t))

	rec := e.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	e := newEnv(t, newSnapshot(t))
	e.do(t, http.MethodGet, "/v1/ip/1.1.1.1")
	e.do(t, http.MethodGet, "/v1/ip/192.0.2.1")

	rec := e.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `asnlook_queries_total{kind="ip",result="hit"} 1`), body)
	assert.True(t, strings.Contains(body, `asnlook_queries_total{kind="ip",result="miss"} 1`), body)
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t, newSnapshot(t))
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/v2/ip/1.1.1.1").Code)
}
