// Package snapshot builds the immutable dataset answering IP and AS queries.
//
// A Snapshot pairs one AS registry with the IPv4 and IPv6 prefix indexes
// built from it. Ranges in both indexes point at records of that same
// registry, so a query against one Snapshot can never mix data from two
// refresh cycles.
package snapshot

import (
	"bytes"
	"fmt"
	"net/netip"
	"time"

	"github.com/tbckr/asnlook/internal/asn"
	"github.com/tbckr/asnlook/internal/prefixindex"
	"github.com/tbckr/asnlook/internal/ranges"
)

// Source is the raw content of the three datasets plus the per-family field
// delimiters of the range tables.
type Source struct {
	Registry []byte
	IPv4     []byte
	IPv6     []byte

	IPv4Delimiter string
	IPv6Delimiter string
}

// Stats summarizes a snapshot.
type Stats struct {
	BuiltAt       time.Time `json:"built_at"`
	ASNs          int       `json:"asns"`
	IPv4Ranges    int       `json:"ipv4_ranges"`
	IPv6Ranges    int       `json:"ipv6_ranges"`
	UnknownOwners int       `json:"unknown_owners"`
}

// Snapshot is a fully built dataset. It is never modified after Build
// returns and is safe for concurrent use.
type Snapshot struct {
	registry asn.Registry
	v4       *prefixindex.Index[*asn.Record]
	v6       *prefixindex.Index[*asn.Record]
	stats    Stats
}

// Build parses src and returns the resulting snapshot. now stamps the
// snapshot; a nil now uses time.Now. Any malformed range line fails the whole
// build.
func Build(src Source, now func() time.Time) (*Snapshot, error) {
	if now == nil {
		now = time.Now
	}

	reg, err := asn.ParseRegistry(bytes.NewReader(src.Registry))
	if err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}

	v4, unknown4, err := buildFamily(ranges.IPv4, src.IPv4Delimiter, src.IPv4, reg)
	if err != nil {
		return nil, err
	}
	v6, unknown6, err := buildFamily(ranges.IPv6, src.IPv6Delimiter, src.IPv6, reg)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		registry: reg,
		v4:       v4,
		v6:       v6,
		stats: Stats{
			BuiltAt:       now(),
			ASNs:          len(reg),
			IPv4Ranges:    v4.Len(),
			IPv6Ranges:    v6.Len(),
			UnknownOwners: unknown4 + unknown6,
		},
	}, nil
}

func buildFamily(fam ranges.Family, delim string, data []byte, reg asn.Registry) (*prefixindex.Index[*asn.Record], int, error) {
	p := &ranges.Parser{Family: fam, Delimiter: delim, Registry: reg}
	rs, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}

	unknown := 0
	entries := make([]prefixindex.Entry[*asn.Record], len(rs))
	for i, r := range rs {
		entries[i] = prefixindex.Entry[*asn.Record]{Prefix: r.Prefix, Value: r.Owner}
		if r.Owner.IsUnknown() {
			unknown++
		}
	}

	idx, err := prefixindex.Build(fam.Bits(), entries)
	if err != nil {
		return nil, 0, fmt.Errorf("indexing %s table: %w", fam, err)
	}
	return idx, unknown, nil
}

// Search returns the most specific network containing addr and the record of
// the AS announcing it. ok is false when no network contains addr.
func (s *Snapshot) Search(addr netip.Addr) (network netip.Prefix, owner asn.Record, ok bool) {
	if s == nil {
		return netip.Prefix{}, asn.Record{}, false
	}

	idx := s.v6
	if ranges.FamilyOf(addr) == ranges.IPv4 {
		idx = s.v4
	}
	network, rec, ok := idx.Lookup(addr)
	if !ok {
		return netip.Prefix{}, asn.Record{}, false
	}
	return network, *rec, true
}

// ASN returns the registry record for id.
func (s *Snapshot) ASN(id uint32) (asn.Record, bool) {
	if s == nil {
		return asn.Record{}, false
	}
	return s.registry.Get(id)
}

// Stats returns the snapshot summary.
func (s *Snapshot) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}
