package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/zkgit/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "zkgit",
	Short: "zkgit - a client for zero-knowledge encrypted Git hosting.",
	Long: `zkgit keeps repositories on a server that never sees their contents.
Archives are encrypted on this machine with a key only your account can
unwrap, and every request is signed with your private key.

Usage:
  zkgit [command] [flags]

Available Commands:
  shell      Start an interactive session (default)
  hook       Send a command to the running session from a Git hook
  config     Manage zkgit configuration

Run 'zkgit help <command>' for more details on a specific command.
`,
	Args:             cobra.NoArgs,
	PersistentPreRun: cmd.InitLogger,
	RunE:             cmd.RunShell,
}

func init() {
	cmd.AddGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().AddFlagSet(cmd.ShellCmd.Flags())

	rootCmd.AddCommand(cmd.ShellCmd)
	rootCmd.AddCommand(cmd.HookCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrHookFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
