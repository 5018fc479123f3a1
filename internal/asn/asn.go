// Package asn holds Autonomous System records and parses the AS-name registry
// ("<id> <name...> <country-code>" per line) into a lookup map.
package asn

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineSize bounds a single registry line. Real lines are well below 1 KiB.
const maxLineSize = 64 * 1024

// Record is a registered Autonomous System.
type Record struct {
	ID          uint32 `json:"asn"`
	Name        string `json:"name"`
	CountryCode string `json:"country"`
}

// unknown is shared by every range whose AS number is missing from the
// registry. It must not be modified.
var unknown = Record{ID: 0, Name: "Unknown", CountryCode: "XX"}

// Unknown returns the placeholder record used for announcements whose AS
// number has no registry entry.
func Unknown() Record { return unknown }

// IsUnknown reports whether r is the placeholder record.
func (r Record) IsUnknown() bool { return r == unknown }

// String returns the record as "AS<id> <name> (<cc>)".
func (r Record) String() string {
	return fmt.Sprintf("AS%d %s (%s)", r.ID, r.Name, r.CountryCode)
}

// Registry maps AS numbers to their records.
type Registry map[uint32]*Record

// Get returns the record for id, if present.
func (reg Registry) Get(id uint32) (Record, bool) {
	r, ok := reg[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Owner returns the record for id, falling back to the shared unknown record.
// The result is never nil.
func (reg Registry) Owner(id uint32) *Record {
	if r, ok := reg[id]; ok {
		return r
	}
	return &unknown
}

// ParseRegistry reads the AS-name registry from r. Lines with fewer than three
// whitespace-separated tokens, or whose first token is not an unsigned 32-bit
// integer, are skipped. For duplicate ids the later line wins. Only read
// errors are returned.
func ParseRegistry(r io.Reader) (Registry, error) {
	reg := make(Registry)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		rec, ok := parseRegistryLine(scanner.Text())
		if !ok {
			continue
		}
		reg[rec.ID] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return reg, nil
}

// parseRegistryLine parses "<id> <name tokens...> <cc>".
func parseRegistryLine(line string) (*Record, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, false
	}
	id, err := ParseID(fields[0])
	if err != nil {
		return nil, false
	}
	return &Record{
		ID:          id,
		Name:        strings.Join(fields[1:len(fields)-1], " "),
		CountryCode: fields[len(fields)-1],
	}, true
}

// ParseID parses a decimal AS number into a uint32.
func ParseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing AS number %q: %w", s, err)
	}
	return uint32(v), nil
}

// ParseASN accepts "13335", "AS13335" or "as13335".
func ParseASN(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], "AS") {
		s = s[2:]
	}
	return ParseID(s)
}
