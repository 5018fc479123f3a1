package asnlookup

import (
	"fmt"
	"io"

	"github.com/tbckr/asnlook/internal/output"
)

// Result is the answer for one AS number.
type Result struct {
	Input      string `json:"input"`
	ASN        string `json:"asn"`
	Registered bool   `json:"registered"`
	Name       string `json:"name,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsEmpty reports whether the AS number is not registered.
func (r *Result) IsEmpty() bool {
	return !r.Registered
}

// WritePlain writes one tab-separated line: AS, country, name.
func (r *Result) WritePlain(w io.Writer) error {
	if !r.Registered {
		_, err := fmt.Fprintf(w, "%s\t-\n", r.ASN)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.ASN, r.Country, r.Name)
	return err
}

// WriteTable renders the result as an ASCII table.
func (r *Result) WriteTable(w io.Writer) error {
	return output.WriteFields(w, r.rows())
}

func (r *Result) rows() [][]string {
	if !r.Registered {
		return [][]string{
			{"ASN", r.ASN},
			{"Status", "not registered"},
		}
	}
	return [][]string{
		{"ASN", r.ASN},
		{"Name", r.Name},
		{"Country", r.Country},
	}
}
