package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ig.

Bash:
  $ source <(ig completion bash)
  $ ig completion bash > /etc/bash_completion.d/ig

Zsh:
  $ ig completion zsh > "${fpath[1]}/_ig"

Fish:
  $ ig completion fish > ~/.config/fish/completions/ig.fish

PowerShell:
  PS> ig completion powershell | Out-String | Invoke-Expression
`,
	}

	shells := []struct {
		name string
		gen  func(root *cobra.Command, w io.Writer) error
	}{
		{"bash", func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) }},
		{"zsh", func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) }},
		{"fish", func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) }},
		{"powershell", func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) }},
	}
	for _, shell := range shells {
		gen := shell.gen
		cmd.AddCommand(&cobra.Command{
			Use:   shell.name,
			Short: "Generate " + shell.name + " completion script",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd.Root(), stdoutFromContext(cmd.Context()))
			},
		})
	}

	return cmd
}
