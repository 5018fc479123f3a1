package iplookup

import (
	"fmt"
	"io"

	"github.com/tbckr/asnlook/internal/output"
)

// Result is the answer for one IP address.
type Result struct {
	Input     string `json:"input"`
	IP        string `json:"ip"`
	Announced bool   `json:"announced"`
	Network   string `json:"network,omitempty"`
	FirstIP   string `json:"first_ip,omitempty"`
	LastIP    string `json:"last_ip,omitempty"`
	ASN       string `json:"asn,omitempty"`
	Name      string `json:"name,omitempty"`
	Country   string `json:"country,omitempty"`
}

// IsEmpty reports whether the address is not announced.
func (r *Result) IsEmpty() bool {
	return !r.Announced
}

// WritePlain writes one tab-separated line: ip, network, AS, country, name.
// Unannounced addresses are written as "<ip>\t-".
func (r *Result) WritePlain(w io.Writer) error {
	if !r.Announced {
		_, err := fmt.Fprintf(w, "%s\t-\n", r.IP)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.IP, r.Network, r.ASN, r.Country, r.Name)
	return err
}

// WriteTable renders the result as an ASCII table.
func (r *Result) WriteTable(w io.Writer) error {
	return output.WriteFields(w, r.rows())
}

func (r *Result) rows() [][]string {
	if !r.Announced {
		return [][]string{
			{"IP", r.IP},
			{"Status", "not announced"},
		}
	}
	return [][]string{
		{"IP", r.IP},
		{"Network", r.Network},
		{"Range", r.FirstIP + " - " + r.LastIP},
		{"ASN", r.ASN},
		{"Name", r.Name},
		{"Country", r.Country},
	}
}
