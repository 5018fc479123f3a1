// Package asnlookup resolves AS numbers to their registered name and country.
package asnlookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbckr/asnlook/internal/asn"
	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/services"
)

// Name is the service identifier, also used as the metrics query kind.
const Name = "asn"

// Service looks up AS numbers in the registry of the active dataset.
type Service struct {
	resolver services.ASNResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a new AS lookup service. m may be nil.
func NewService(r services.ASNResolver, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{resolver: r, metrics: m, logger: logger}
}

// Name returns the service identifier.
func (s *Service) Name() string { return Name }

// AggregateResults combines multiple AS results into a MultiResult.
func (s *Service) AggregateResults(results []services.Result) services.Result {
	return &MultiResult{services.MultiResultBase[Result, *Result]{
		Results: services.Collect[Result](results),
	}}
}

// Run looks up one AS number, given as "13335" or "AS13335".
func (s *Service) Run(_ context.Context, input string) (services.Result, error) {
	input = output.StripANSI(strings.TrimSpace(input))

	id, err := asn.ParseASN(input)
	if err != nil {
		s.metrics.ObserveQuery(Name, metrics.QueryInvalid)
		return nil, fmt.Errorf("%w: must be an AS number (e.g. AS13335): %q", services.ErrInvalidInput, input)
	}
	if !s.resolver.Ready() {
		return nil, services.ErrNoSnapshot
	}

	result := &Result{Input: input, ASN: fmt.Sprintf("AS%d", id)}

	rec, ok := s.resolver.GetASN(id)
	if !ok {
		s.metrics.ObserveQuery(Name, metrics.QueryMiss)
		s.logger.Debug("AS number not registered", "asn", id)
		return result, nil
	}
	s.metrics.ObserveQuery(Name, metrics.QueryHit)

	result.Registered = true
	result.Name = output.Sanitize(rec.Name)
	result.Country = output.Sanitize(rec.CountryCode)
	return result, nil
}
