package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/services"
	"github.com/tbckr/asnlook/internal/worker"
)

// runServiceCmd runs svc over the command's inputs and writes the results.
// Inputs that match nothing are noted on stderr and kept in the output.
// Failed inputs are logged; the command fails only when every input failed.
func runServiceCmd(cmd *cobra.Command, d *deps, svc services.Service, inputs []string) error {
	results := worker.Run(cmd.Context(), svc, inputs, d.cfg.Concurrency)

	var (
		collected []services.Result
		firstErr  error
	)
	stderr := cmd.ErrOrStderr()
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			d.logger.Error("lookup failed", "service", svc.Name(), "input", r.Input, "error", r.Err)
			continue
		}
		if r.Output.IsEmpty() {
			if _, err := fmt.Fprintf(stderr, "no match: %s\n", r.Input); err != nil {
				return err
			}
		}
		collected = append(collected, r.Output)
	}

	if len(collected) == 0 {
		return firstErr
	}
	if len(collected) == 1 {
		return writeResult(cmd.OutOrStdout(), d, collected[0])
	}
	return writeResult(cmd.OutOrStdout(), d, svc.AggregateResults(collected))
}
