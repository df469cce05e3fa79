package commands

import (
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/config"
)

// completionGenerators writes the completion script of each supported shell
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// NewCompletionCommand creates the completion command
func NewCompletionCommand(_ *config.Config) *cobra.Command {
	shells := make([]string, 0, len(completionGenerators))
	for shell := range completionGenerators {
		shells = append(shells, shell)
	}
	sort.Strings(shells)

	return &cobra.Command{
		Use:   "completion SHELL",
		Short: "Print the shell completion script",
		Long: `Print the completion script for SHELL to standard output. Source it from your
shell profile, for example:

  source <(paramdocs completion bash)`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
