// Package services defines the shared contracts of the lookup services and
// the interfaces they use to reach the active dataset.
package services

import (
	"net/netip"

	"github.com/tbckr/asnlook/internal/asn"
	"github.com/tbckr/asnlook/internal/resolver"
)

// IPResolver answers IP-to-AS queries. *resolver.Resolver satisfies it.
type IPResolver interface {
	Search(addr netip.Addr) (resolver.Info, bool)
	Ready() bool
}

// ASNResolver answers AS-number queries. *resolver.Resolver satisfies it.
type ASNResolver interface {
	GetASN(id uint32) (asn.Record, bool)
	Ready() bool
}

// type check
var (
	_ IPResolver  = (*resolver.Resolver)(nil)
	_ ASNResolver = (*resolver.Resolver)(nil)
)
