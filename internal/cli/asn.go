package cli

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/services/asnlookup"
)

func newASNCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "asn [ASN...]",
		Short:   "Look up the registered name and country of an AS number",
		GroupID: "lookup",
		Long: `Look up the name and country an Autonomous System is registered with.

AS numbers may be given as 13335 or AS13335 (case-insensitive). Multiple
inputs can be supplied as arguments or piped via stdin (one per line).`,
		Example: `  asnlook asn AS13335
  asnlook asn 15169 --output json`,
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
			return runServiceCmd(cmd, d, asnlookup.NewService(r, nil, d.logger), inputs)
		},
	}
}
