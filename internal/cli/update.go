package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/fetch"
	"github.com/tbckr/asnlook/internal/output"
	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/snapshot"
)

// sourceInfo describes the cached copy of one dataset.
type sourceInfo struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Cached       bool      `json:"cached"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at,omitempty"`
}

// updateResult is the output of the update command.
type updateResult struct {
	Snapshot snapshot.Stats `json:"snapshot"`
	Sources  []sourceInfo   `json:"sources"`
}

func (u *updateResult) WritePlain(w io.Writer) error {
	s := u.Snapshot
	_, err := fmt.Fprintf(w, "built_at=%s\nasns=%d\nipv4_ranges=%d\nipv6_ranges=%d\nunknown_owners=%d\n",
		s.BuiltAt.UTC().Format(time.RFC3339), s.ASNs, s.IPv4Ranges, s.IPv6Ranges, s.UnknownOwners)
	return err
}

func (u *updateResult) WriteTable(w io.Writer) error {
	s := u.Snapshot
	rows := [][]string{
		{"Built", s.BuiltAt.UTC().Format(time.RFC3339)},
		{"AS numbers", strconv.Itoa(s.ASNs)},
		{"IPv4 ranges", strconv.Itoa(s.IPv4Ranges)},
		{"IPv6 ranges", strconv.Itoa(s.IPv6Ranges)},
		{"Unknown owners", strconv.Itoa(s.UnknownOwners)},
	}
	for _, src := range u.Sources {
		value := "not cached"
		if src.Cached {
			value = "fetched " + src.FetchedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{src.Name, value})
	}
	return output.WriteFields(w, rows)
}

func newUpdateCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "update",
		Short:   "Download the datasets and print snapshot statistics",
		GroupID: "dataset",
		Long: `Run one refresh cycle: download the AS registry and both routing tables
(revalidating cached copies), build a snapshot and print its statistics.

A failed cycle leaves the cache untouched and exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := d.newFetcher()
			if err != nil {
				return err
			}
			r := resolver.New(nil)
			if err := d.newDataset(f, r, nil).Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("updating datasets: %w", err)
			}

			result := &updateResult{
				Snapshot: r.Snapshot().Stats(),
				Sources: []sourceInfo{
					cachedSource(f, "registry", d.sources.RegistryURL),
					cachedSource(f, "ipv4", d.sources.IPv4URL),
					cachedSource(f, "ipv6", d.sources.IPv6URL),
				},
			}
			return writeResult(cmd.OutOrStdout(), d, result)
		},
	}
}

func cachedSource(f *fetch.Fetcher, name, url string) sourceInfo {
	info := sourceInfo{Name: name, URL: url}
	if m, ok := f.Cached(url); ok {
		info.Cached = true
		info.ETag = m.ETag
		info.LastModified = m.LastModified
		info.FetchedAt = m.FetchedAt
	}
	return info
}
