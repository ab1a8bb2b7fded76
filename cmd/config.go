package cmd

import (
	"github.com/spf13/cobra"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage zkgit configuration",
	Long: `Provides commands for managing the zkgit configuration file.

Examples:
  # Create the configuration, pointing at a server
  zkgit config init --server-url https://git.example.com

  # Show the effective configuration
  zkgit config show`,
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
