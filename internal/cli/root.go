// Package cli provides the Cobra command tree and output wiring for asnlook.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/config"
	"github.com/tbckr/asnlook/internal/version"
)

// newRootCmd builds the top-level Cobra command for asnlook.
// Callers must set stdin/stdout/stderr before Execute.
func newRootCmd() *cobra.Command {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// Cobra only executes the innermost PersistentPreRunE in the command
	// chain, so subcommands must not define their own (completion excepted).
	var d deps

	cmd := &cobra.Command{
		Use:   "asnlook",
		Short: "Resolve IP addresses and AS numbers from public routing tables",
		Long: `asnlook maps IP addresses to the most specific announced network and the
Autonomous System announcing it, and AS numbers to their registered name and
country.

Datasets are downloaded from the APNIC raw routing tables and the RIPE AS
name registry, cached on disk and revalidated with conditional requests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			d = *resolved
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("asnlook version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "lookup", Title: "Lookup Commands:"},
		&cobra.Group{ID: "dataset", Title: "Dataset Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(
		newIPCmd(&d),
		newASNCmd(&d),
		newUpdateCmd(&d),
		newServeCmd(&d),
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
