package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ols. Relation names are completed
for the relatives command.

To load completions:

Bash:
  $ source <(ols completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ols completion bash > /etc/bash_completion.d/ols
  # macOS:
  $ ols completion bash > $(brew --prefix)/etc/bash_completion.d/ols

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ols completion zsh > "${fpath[1]}/_ols"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ols completion fish | source

  # To load completions for each session, execute once:
  $ ols completion fish > ~/.config/fish/completions/ols.fish

PowerShell:
  PS> ols completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ols completion powershell > ols.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.Out)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}
