package prefixindex_test

import (
	"math/rand/v2"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/asnlook/internal/prefixindex"
)

func entries(pairs ...any) []prefixindex.Entry[string] {
	var out []prefixindex.Entry[string]
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, prefixindex.Entry[string]{
			Prefix: netip.MustParsePrefix(pairs[i].(string)),
			Value:  pairs[i+1].(string),
		})
	}
	return out
}

func mustBuild(t *testing.T, bits int, e []prefixindex.Entry[string]) *prefixindex.Index[string] {
	t.Helper()
	idx, err := prefixindex.Build(bits, e)
	require.NoError(t, err)
	return idx
}

func TestLookup_LongestPrefixWins(t *testing.T) {
	idx := mustBuild(t, 32, entries(
		"10.0.0.0/8", "AS100",
		"10.1.0.0/16", "AS200",
		"10.1.2.0/24", "AS300",
	))

	tests := []struct {
		addr    string
		network string
		want    string
	}{
		{"10.1.2.3", "10.1.2.0/24", "AS300"},
		{"10.1.3.3", "10.1.0.0/16", "AS200"},
		{"10.2.0.0", "10.0.0.0/8", "AS100"},
		{"10.255.255.255", "10.0.0.0/8", "AS100"},
	}
	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			p, v, ok := idx.Lookup(netip.MustParseAddr(tc.addr))
			require.True(t, ok)
			assert.Equal(t, tc.want, v)
			assert.Equal(t, netip.MustParsePrefix(tc.network), p)
		})
	}
}

func TestLookup_InsertionOrderIrrelevantForNesting(t *testing.T) {
	idx := mustBuild(t, 32, entries(
		"10.1.0.0/16", "AS200",
		"10.0.0.0/8", "AS100",
	))
	_, v, ok := idx.Lookup(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)
	assert.Equal(t, "AS200", v)
}

func TestLookup_NoMatch(t *testing.T) {
	idx := mustBuild(t, 32, entries("10.0.0.0/8", "AS100"))
	_, _, ok := idx.Lookup(netip.MustParseAddr("192.0.2.1"))
	assert.False(t, ok)
}

func TestLookup_DefaultRoute(t *testing.T) {
	idx := mustBuild(t, 32, entries("0.0.0.0/0", "default", "192.0.2.0/24", "doc"))
	_, v, ok := idx.Lookup(netip.MustParseAddr("198.51.100.1"))
	require.True(t, ok)
	assert.Equal(t, "default", v)
}

func TestLookup_HostRoute(t *testing.T) {
	idx := mustBuild(t, 128, entries("2001:db8::/32", "net", "2001:db8::1/128", "host"))
	p, v, ok := idx.Lookup(netip.MustParseAddr("2001:db8::1"))
	require.True(t, ok)
	assert.Equal(t, "host", v)
	assert.Equal(t, 128, p.Bits())

	_, v, ok = idx.Lookup(netip.MustParseAddr("2001:db8::2"))
	require.True(t, ok)
	assert.Equal(t, "net", v)
}

func TestLookup_DuplicateLaterWins(t *testing.T) {
	idx := mustBuild(t, 32, entries(
		"192.0.2.0/24", "first",
		"192.0.2.0/24", "second",
	))
	assert.Equal(t, 1, idx.Len())
	_, v, ok := idx.Lookup(netip.MustParseAddr("192.0.2.10"))
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestLookup_WrongFamily(t *testing.T) {
	v4 := mustBuild(t, 32, entries("0.0.0.0/0", "any4"))
	_, _, ok := v4.Lookup(netip.MustParseAddr("2001:db8::1"))
	assert.False(t, ok)

	v6 := mustBuild(t, 128, entries("::/0", "any6"))
	_, _, ok = v6.Lookup(netip.MustParseAddr("192.0.2.1"))
	assert.False(t, ok)

	_, _, ok = v4.Lookup(netip.Addr{})
	assert.False(t, ok)
}

func TestLookup_MappedAddressUsesIPv4(t *testing.T) {
	idx := mustBuild(t, 32, entries("192.0.2.0/24", "doc"))
	_, v, ok := idx.Lookup(netip.MustParseAddr("::ffff:192.0.2.5"))
	require.True(t, ok)
	assert.Equal(t, "doc", v)
}

func TestLookup_NilIndex(t *testing.T) {
	var idx *prefixindex.Index[string]
	_, _, ok := idx.Lookup(netip.MustParseAddr("192.0.2.1"))
	assert.False(t, ok)
	assert.Zero(t, idx.Len())
}

func TestBuild_Errors(t *testing.T) {
	_, err := prefixindex.Build(64, entries("10.0.0.0/8", "x"))
	require.Error(t, err)

	_, err = prefixindex.Build(32, entries("2001:db8::/32", "x"))
	require.Error(t, err)

	_, err = prefixindex.Build(128, entries("::ffff:10.0.0.0/104", "x"))
	require.Error(t, err)

	_, err = prefixindex.Build(32, []prefixindex.Entry[string]{{Value: "zero"}})
	require.Error(t, err)
}

func TestBuild_MasksAndReportsLengths(t *testing.T) {
	idx := mustBuild(t, 32, entries("10.1.2.3/8", "AS100", "10.1.0.0/16", "AS200"))
	v, ok := idx.Get(netip.MustParsePrefix("10.0.0.0/8"))
	require.True(t, ok)
	assert.Equal(t, "AS100", v)
	assert.Equal(t, []int{16, 8}, idx.Lengths())
	assert.Equal(t, 32, idx.Bits())
}

// TestLookup_MatchesLinearScan compares the index against an exhaustive scan
// that picks the longest containing prefix.
func TestLookup_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var es []prefixindex.Entry[string]
	for i := range 2000 {
		b := [4]byte{10, byte(rng.IntN(4)), byte(rng.IntN(256)), byte(rng.IntN(256))}
		p, err := netip.AddrFrom4(b).Prefix(8 + rng.IntN(25))
		require.NoError(t, err)
		es = append(es, prefixindex.Entry[string]{Prefix: p, Value: p.String() + "#" + string(rune('a'+i%26))})
	}
	idx := mustBuild(t, 32, es)

	linear := func(addr netip.Addr) (netip.Prefix, string, bool) {
		best := -1
		var bestP netip.Prefix
		var bestV string
		for _, e := range es {
			if e.Prefix.Contains(addr) && e.Prefix.Bits() >= best {
				best, bestP, bestV = e.Prefix.Bits(), e.Prefix, e.Value
			}
		}
		return bestP, bestV, best >= 0
	}

	for range 5000 {
		addr := netip.AddrFrom4([4]byte{10, byte(rng.IntN(5)), byte(rng.IntN(256)), byte(rng.IntN(256))})
		wantP, wantV, wantOK := linear(addr)
		gotP, gotV, gotOK := idx.Lookup(addr)
		require.Equal(t, wantOK, gotOK, "addr %s", addr)
		if wantOK {
			require.Equal(t, wantP, gotP, "addr %s", addr)
			require.Equal(t, wantV, gotV, "addr %s", addr)
		}
	}
}

func TestLookup_ZonedIPv6(t *testing.T) {
	idx := mustBuild(t, 128, entries("fe80::/10", "link-local", "fe80::/64", "lan"))
	p, v, ok := idx.Lookup(netip.MustParseAddr("fe80::1%eth0"))
	require.True(t, ok)
	assert.Equal(t, "lan", v)
	assert.Equal(t, netip.MustParsePrefix("fe80::/64"), p)
}

func TestGet_InvalidPrefix(t *testing.T) {
	idx := mustBuild(t, 32, entries("10.0.0.0/8", "x"))
	_, ok := idx.Get(netip.Prefix{})
	assert.False(t, ok)
}
