// Package prefixindex implements an immutable longest-prefix-match table for
// one IP address family, backed by a bart routing table.
package prefixindex

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/gaissmai/bart"
)

// Entry is a prefix and the value stored for it.
type Entry[V any] struct {
	Prefix netip.Prefix
	Value  V
}

// Index answers longest-prefix-match queries. It is safe for concurrent use
// because it is never modified after Build returns.
type Index[V any] struct {
	table *bart.Table[V]
	n     int
	// lengths holds every prefix length present, longest first.
	lengths []int
	bits    int
}

// Build creates an index over entries for addresses of the given bit length
// (32 or 128). Prefixes are masked before insertion. When the same prefix
// occurs more than once the later entry wins. An entry of the wrong family
// or an invalid prefix is an error.
func Build[V any](bits int, entries []Entry[V]) (*Index[V], error) {
	if bits != 32 && bits != 128 {
		return nil, fmt.Errorf("unsupported address length %d", bits)
	}

	idx := &Index[V]{
		table: new(bart.Table[V]),
		bits:  bits,
	}

	var present [129]bool
	for i, e := range entries {
		if !e.Prefix.IsValid() {
			return nil, fmt.Errorf("entry %d: invalid prefix", i)
		}
		if e.Prefix.Addr().BitLen() != bits || e.Prefix.Addr().Is4In6() {
			return nil, fmt.Errorf("entry %d: prefix %s does not match %d-bit family", i, e.Prefix, bits)
		}
		p := e.Prefix.Masked()
		if _, dup := idx.table.Get(p); !dup {
			idx.n++
		}
		// Insert overwrites an existing prefix.
		idx.table.Insert(p, e.Value)
		present[p.Bits()] = true
	}

	for l := bits; l >= 0; l-- {
		if present[l] {
			idx.lengths = append(idx.lengths, l)
		}
	}

	return idx, nil
}

// Lookup returns the most specific stored prefix containing addr and its
// value. ok is false when no prefix contains addr or addr belongs to the
// other family. IPv4-mapped IPv6 addresses are treated as IPv4.
func (idx *Index[V]) Lookup(addr netip.Addr) (p netip.Prefix, v V, ok bool) {
	if idx == nil {
		return netip.Prefix{}, v, false
	}
	addr = addr.Unmap()
	if !addr.IsValid() || addr.BitLen() != idx.bits {
		return netip.Prefix{}, v, false
	}
	host := netip.PrefixFrom(addr.WithZone(""), idx.bits)
	return idx.table.LookupPrefixLPM(host)
}

// Get returns the value stored for exactly p.
func (idx *Index[V]) Get(p netip.Prefix) (v V, ok bool) {
	if idx == nil || !p.IsValid() {
		return v, false
	}
	return idx.table.Get(p.Masked())
}

// Len returns the number of distinct prefixes.
func (idx *Index[V]) Len() int {
	if idx == nil {
		return 0
	}
	return idx.n
}

// Bits returns the address length of the indexed family.
func (idx *Index[V]) Bits() int { return idx.bits }

// Lengths returns the distinct prefix lengths present, longest first.
func (idx *Index[V]) Lengths() []int {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.lengths)
}
