package resolver

import (
	"net/netip"
	"sync/atomic"

	"github.com/tbckr/asnlook/internal/asn"
	"github.com/tbckr/asnlook/internal/snapshot"
)

// Info is the answer to an IP query.
type Info struct {
	IP      netip.Addr   `json:"ip"`
	Network netip.Prefix `json:"network"`
	Owner   asn.Record   `json:"owner"`
}

// Resolver serves queries from the active snapshot. The zero value has no
// snapshot and answers every query with not-found.
type Resolver struct {
	active atomic.Pointer[snapshot.Snapshot]
}

// New returns a Resolver serving snap, which may be nil.
func New(snap *snapshot.Snapshot) *Resolver {
	r := &Resolver{}
	if snap != nil {
		r.active.Store(snap)
	}
	return r
}

// Search returns the most specific announced network containing addr and its
// owner. ok is false when no snapshot is loaded or addr is not announced.
func (r *Resolver) Search(addr netip.Addr) (Info, bool) {
	snap := r.active.Load()
	network, owner, ok := snap.Search(addr)
	if !ok {
		return Info{}, false
	}
	return Info{IP: addr, Network: network, Owner: owner}, true
}

// GetASN returns the registry record for id from the active snapshot.
func (r *Resolver) GetASN(id uint32) (asn.Record, bool) {
	return r.active.Load().ASN(id)
}

// Snapshot returns the active snapshot, or nil before the first successful
// load.
func (r *Resolver) Snapshot() *snapshot.Snapshot {
	return r.active.Load()
}

// Swap publishes snap as the active snapshot and returns the previous one.
// A nil snap is ignored so a failed build can never unload the dataset.
func (r *Resolver) Swap(snap *snapshot.Snapshot) (old *snapshot.Snapshot) {
	if snap == nil {
		return r.active.Load()
	}
	return r.active.Swap(snap)
}

// Ready reports whether a snapshot has been published.
func (r *Resolver) Ready() bool {
	return r.active.Load() != nil
}
