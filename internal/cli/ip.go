package cli

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/services/iplookup"
)

func newIPCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "ip [address...]",
		Short:   "Look up the network and AS announcing an IP address",
		GroupID: "lookup",
		Long: `Look up the most specific announced network containing an IPv4 or IPv6
address and the Autonomous System announcing it.

The datasets are loaded first, from the cache when it is fresh. Multiple
addresses can be supplied as arguments or piped via stdin (one per line) and
are processed concurrently (see --concurrency).`,
		Example: `  # Single address
  asnlook ip 1.1.1.1

  # IPv6 address
  asnlook ip 2606:4700::1111

  # Bulk input from stdin
  printf '1.1.1.1\n8.8.8.8\n' | asnlook ip -o plain

  # Use the cached datasets only
  asnlook ip --offline 1.1.1.1`,
		Args: cobra.ArbitraryArgs,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := resolveInputs(cmd, args)
			if err != nil {
				return err
			}
			r, err := d.loadResolver(cmd.Context())
			if err != nil {
				return err
			}
			return runServiceCmd(cmd, d, iplookup.NewService(r, nil, d.logger), inputs)
		},
	}
}
