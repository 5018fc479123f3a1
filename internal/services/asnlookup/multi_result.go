package asnlookup

import (
	"io"

	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/services"
)

// MultiResult holds AS lookup results for multiple inputs.
type MultiResult struct {
	services.MultiResultBase[Result, *Result]
}

// WriteTable renders all results in a single combined table grouped by input.
func (m *MultiResult) WriteTable(w io.Writer) error {
	var rows [][]string
	for _, r := range m.Results {
		for _, row := range r.rows() {
			rows = append(rows, append([]string{r.Input}, row...))
		}
	}
	return output.WriteGroupedFields(w, "Input", rows)
}
