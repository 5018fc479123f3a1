package cli

import (
	"io"

	"github.com/spf13/cobra"
)

type completionShell struct {
	name  string
	usage string
	gen   func(root *cobra.Command, w io.Writer) error
}

var completionShells = []completionShell{
	{
		name:  "bash",
		usage: "  $ source <(asnlook completion bash)\n  $ asnlook completion bash > /etc/bash_completion.d/asnlook",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenBashCompletionV2(w, true)
		},
	},
	{
		name:  "zsh",
		usage: "  $ source <(asnlook completion zsh)\n  $ asnlook completion zsh > \"${fpath[1]}/_asnlook\"",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenZshCompletion(w)
		},
	},
	{
		name:  "fish",
		usage: "  $ asnlook completion fish | source\n  $ asnlook completion fish > ~/.config/fish/completions/asnlook.fish",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenFishCompletion(w, true)
		},
	},
	{
		name:  "powershell",
		usage: "  PS> asnlook completion powershell | Out-String | Invoke-Expression",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenPowerShellCompletionWithDesc(w)
		},
	},
}

func newCompletionCmd() *cobra.Command {
	completion := &cobra.Command{
		Use:     "completion [bash|zsh|fish|powershell]",
		Short:   "Generate shell completion scripts",
		GroupID: "utility",
		Long: `Generate shell completion scripts for asnlook.

Load the script in the current shell, or write it once to the shell's
completion directory to load it in every new session.`,
		// buildDeps must not run during tab-completion because it creates the
		// config dir and file. This is the only subcommand allowed to override
		// the root PersistentPreRunE.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}

	for _, sh := range completionShells {
		completion.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate " + sh.name + " completion script",
			Long:                  "Generate the autocompletion script for " + sh.name + ".\n\n" + sh.usage,
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return sh.gen(cmd.Root(), cmd.OutOrStdout())
			},
		})
	}

	return completion
}
