// Package metrics contains the prometheus metrics exported by asnlook.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tbckr/asnlook/internal/apperr"
	"github.com/tbckr/asnlook/internal/snapshot"
)

const namespace = "asnlook"

// Refresh results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Query results.
const (
	QueryHit     = "hit"
	QueryMiss    = "miss"
	QueryInvalid = "invalid"
)

// Metrics groups the collectors of one process.
type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastSuccess     prometheus.Gauge
	snapshotRanges  *prometheus.GaugeVec
	snapshotASNs    prometheus.Gauge
	queriesTotal    *prometheus.CounterVec
}

// New registers the collectors on reg. Registering twice on the same
// registerer panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Dataset refresh cycles by result.",
		}, []string{"result"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of dataset refresh cycles, including downloads.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
		snapshotRanges: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_ranges",
			Help:      "Distinct announced networks in the active snapshot.",
		}, []string{"family"}),
		snapshotASNs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_asns",
			Help:      "Registered AS numbers in the active snapshot.",
		}),
		queriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Lookups by kind (ip, asn) and result (hit, miss, invalid).",
		}, []string{"kind", "result"}),
	}
}

// ObserveRefresh records one refresh cycle. A coalesced request counts as
// skipped and does not touch the duration histogram.
func (m *Metrics) ObserveRefresh(dur time.Duration, err error, now time.Time) {
	if m == nil {
		return
	}
	switch {
	case err == nil:
		m.refreshTotal.WithLabelValues(ResultSuccess).Inc()
		m.lastSuccess.Set(float64(now.Unix()))
	case errors.Is(err, apperr.ErrRefreshInProgress):
		m.refreshTotal.WithLabelValues(ResultSkipped).Inc()
		return
	default:
		m.refreshTotal.WithLabelValues(ResultError).Inc()
	}
	m.refreshDuration.Observe(dur.Seconds())
}

// ObserveSnapshot publishes the size of the active snapshot.
func (m *Metrics) ObserveSnapshot(s snapshot.Stats) {
	if m == nil {
		return
	}
	m.snapshotRanges.WithLabelValues("ipv4").Set(float64(s.IPv4Ranges))
	m.snapshotRanges.WithLabelValues("ipv6").Set(float64(s.IPv6Ranges))
	m.snapshotASNs.Set(float64(s.ASNs))
}

// ObserveQuery counts one lookup.
func (m *Metrics) ObserveQuery(kind, result string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(kind, result).Inc()
}

// SetUpGauge registers a constant 1 gauge labelled with build information.
func SetUpGauge(reg prometheus.Registerer, version, commit, date string) {
	promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "up",
		Help:      "Constant 1, labelled with the build that is running.",
		ConstLabels: prometheus.Labels{
			"version": version,
			"commit":  commit,
			"date":    date,
		},
	}).Set(1)
}
