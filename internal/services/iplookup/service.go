// Package iplookup resolves IP addresses to the announcing network and AS.
package iplookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"

	"go4.org/netipx"

	"github.com/tbckr/asnlook/internal/metrics"
	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/services"
)

// Name is the service identifier, also used as the metrics query kind.
const Name = "ip"

// Service looks up IP addresses in the active dataset.
type Service struct {
	resolver services.IPResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a new IP lookup service. m may be nil.
func NewService(r services.IPResolver, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{resolver: r, metrics: m, logger: logger}
}

// Name returns the service identifier.
func (s *Service) Name() string { return Name }

// AggregateResults combines multiple IP results into a MultiResult.
func (s *Service) AggregateResults(results []services.Result) services.Result {
	return &MultiResult{services.MultiResultBase[Result, *Result]{
		Results: services.Collect[Result](results),
	}}
}

// Run resolves a single IPv4 or IPv6 address. An address that no network
// contains yields a Result with Announced set to false, not an error.
func (s *Service) Run(_ context.Context, input string) (services.Result, error) {
	input = output.StripANSI(strings.TrimSpace(input))

	addr, err := netip.ParseAddr(input)
	if err != nil {
		s.metrics.ObserveQuery(Name, metrics.QueryInvalid)
		return nil, fmt.Errorf("%w: must be an IPv4 or IPv6 address: %q", services.ErrInvalidInput, input)
	}
	if !s.resolver.Ready() {
		return nil, services.ErrNoSnapshot
	}

	addr = addr.Unmap().WithZone("")
	result := &Result{Input: input, IP: addr.String()}

	info, ok := s.resolver.Search(addr)
	if !ok {
		s.metrics.ObserveQuery(Name, metrics.QueryMiss)
		s.logger.Debug("address not announced", "ip", addr)
		return result, nil
	}
	s.metrics.ObserveQuery(Name, metrics.QueryHit)

	result.Announced = true
	result.Network = info.Network.String()
	result.FirstIP = info.Network.Addr().String()
	result.LastIP = netipx.PrefixLastIP(info.Network).String()
	result.ASN = fmt.Sprintf("AS%d", info.Owner.ID)
	result.Name = output.Sanitize(info.Owner.Name)
	result.Country = output.Sanitize(info.Owner.CountryCode)
	return result, nil
}
