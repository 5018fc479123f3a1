// Package ranges parses routing table snapshots ("<network><delim>...<delim><asn>"
// per line) into network ranges owned by registry records.
package ranges

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"slices"
	"strings"

	"github.com/tbckr/asnlook/internal/apperr"
	"github.com/tbckr/asnlook/internal/asn"
)

// maxLineSize bounds a single routing table line.
const maxLineSize = 64 * 1024

// Family is an IP address family.
type Family int

// Supported address families.
const (
	IPv4 Family = iota
	IPv6
)

// String returns "ipv4" or "ipv6".
func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Bits returns the address length of the family in bits.
func (f Family) Bits() int {
	if f == IPv6 {
		return 128
	}
	return 32
}

// FamilyOf returns the family of addr. IPv4-mapped IPv6 addresses are
// reported as IPv4.
func FamilyOf(addr netip.Addr) Family {
	if addr.Unmap().Is4() {
		return IPv4
	}
	return IPv6
}

// Range is an announced network and the record of the AS announcing it.
type Range struct {
	Prefix netip.Prefix
	Owner  *asn.Record
}

// Parser parses one routing table.
type Parser struct {
	// Family is the address family every network in the table must belong to.
	Family Family

	// Delimiter separates the fields of a line. Must not be empty.
	Delimiter string

	// Registry resolves AS numbers to records. Unknown numbers resolve to
	// the shared unknown record.
	Registry asn.Registry
}

// Parse reads the whole table from r. Blank lines are ignored. Any line whose
// first field is not a network of p.Family, or whose last field is not an
// unsigned 32-bit AS number, aborts the parse with an error wrapping
// apperr.ErrMalformedRange. Ranges are returned in source order.
func (p *Parser) Parse(r io.Reader) ([]Range, error) {
	if p.Delimiter == "" {
		return nil, fmt.Errorf("%s table: empty field delimiter", p.Family)
	}

	var out []Range
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rng, err := p.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s table line %d: %w", apperr.ErrMalformedRange, p.Family, lineNo, err)
		}
		out = append(out, rng)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s table: %w", p.Family, err)
	}
	return out, nil
}

func (p *Parser) parseLine(line string) (Range, error) {
	fields := nonEmptyFields(line, p.Delimiter)
	if len(fields) < 2 {
		return Range{}, fmt.Errorf("expected network and AS number, got %q", line)
	}

	prefix, err := netip.ParsePrefix(fields[0])
	if err != nil {
		return Range{}, fmt.Errorf("parsing network: %w", err)
	}
	if got := FamilyOf(prefix.Addr()); got != p.Family || prefix.Addr().Is4In6() {
		return Range{}, fmt.Errorf("network %s is not %s", prefix, p.Family)
	}

	id, err := asn.ParseID(fields[len(fields)-1])
	if err != nil {
		return Range{}, err
	}

	return Range{Prefix: prefix.Masked(), Owner: p.Registry.Owner(id)}, nil
}

// nonEmptyFields splits s on delim and drops empty or blank fields so that
// runs of delimiters are tolerated.
func nonEmptyFields(s, delim string) []string {
	parts := strings.Split(s, delim)
	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Delimiter names accepted in configuration in addition to literal strings.
var delimiterNames = map[string]string{
	"tab":   "\t",
	"space": " ",
	"comma": ",",
	"pipe":  "|",
}

// ParseDelimiter resolves a configured delimiter. Named delimiters ("tab",
// "space", "comma", "pipe") and the escapes `\t` and `\s` are translated; any
// other non-empty value is used literally.
func ParseDelimiter(s string) (string, error) {
	if d, ok := delimiterNames[strings.ToLower(s)]; ok {
		return d, nil
	}
	switch s {
	case "":
		return "", fmt.Errorf("%w: empty delimiter", apperr.ErrInvalidInput)
	case `\t`:
		return "\t", nil
	case `\s`:
		return " ", nil
	}
	return s, nil
}

// DelimiterNames returns the named delimiters in sorted order.
func DelimiterNames() []string {
	names := make([]string, 0, len(delimiterNames))
	for n := range delimiterNames {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
