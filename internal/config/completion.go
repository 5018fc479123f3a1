package config

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/asnlook/internal/ranges"
)

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return formatNames(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteDelimiter provides shell completion candidates for the delimiter flags.
func CompleteDelimiter(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return ranges.DelimiterNames(), cobra.ShellCompDirectiveNoFileComp
}

// RegisterFlagCompletions attaches value completions to the flags created by
// RegisterFlags on cmd's persistent flag set.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("ipv4-delimiter", CompleteDelimiter)
	_ = cmd.RegisterFlagCompletionFunc("ipv6-delimiter", CompleteDelimiter)
	_ = cmd.RegisterFlagCompletionFunc("cache-dir", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
