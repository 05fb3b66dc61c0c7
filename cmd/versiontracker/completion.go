package main

import (
	"github.com/spf13/cobra"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for versiontracker.

Zsh (the default macOS shell):
  $ versiontracker completion zsh > "$(brew --prefix)/share/zsh/site-functions/_versiontracker"
  # Start a new shell for completions to load.

Bash:
  $ versiontracker completion bash > "$(brew --prefix)/etc/bash_completion.d/versiontracker"

Fish:
  $ versiontracker completion fish > ~/.config/fish/completions/versiontracker.fish

PowerShell:
  PS> versiontracker completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeCompletion(cmd, args[0]); err != nil {
			logger.Error("generating %s completion: %v", args[0], err)
		}
	},
}

// writeCompletion writes the completion script for shell to the command output
func writeCompletion(cmd *cobra.Command, shell string) error {
	out := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	default:
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
