package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/zkgit/internal/configs"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/ui"
)

var (
	configInitServerURL  string
	configInitBridgePort int
	configInitReposPath  string
	configInitTimeout    int
)

func init() {
	configInitCmd.Flags().StringVarP(&configInitServerURL, "server-url", "s", "", "server URL")
	configInitCmd.Flags().IntVar(&configInitBridgePort, "bridge-port", 0, "local bridge port")
	configInitCmd.Flags().StringVar(&configInitReposPath, "repos-path", "", "directory for repository archives")
	configInitCmd.Flags().IntVar(&configInitTimeout, "timeout", 0, "network timeout in seconds")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitServerURL = ""
	configInitBridgePort = 0
	configInitReposPath = ""
	configInitTimeout = 0
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the configuration file",
	Long: `Creates the zkgit configuration file, or updates the fields given as
flags. When no server URL is given and stdin is a terminal, you are asked
for one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		return RunConfigInit(cmd, s, prompt.NewTerminal(), prompt.IsTerminal())
	},
}

// RunConfigInit applies the init flags to the configuration at s. With
// interactive set and no server URL flag, p is asked for one.
func RunConfigInit(cmd *cobra.Command, s *configs.Settings, p prompt.Prompter, interactive bool) error {
	config, err := configs.Ensure(s)
	if err != nil {
		return err
	}

	serverURL := configInitServerURL
	if serverURL == "" && interactive {
		answer, err := p.ReadLine(context.Background(), fmt.Sprintf("Server URL [%s]: ", config.ServerURL))
		if err != nil {
			return err
		}
		serverURL = answer
	}

	if serverURL != "" {
		config.ServerURL = serverURL
	}
	if configInitBridgePort != 0 {
		config.BridgePort = configInitBridgePort
	}
	if configInitReposPath != "" {
		config.ReposPath = configInitReposPath
	}
	if configInitTimeout != 0 {
		config.TimeoutSeconds = configInitTimeout
	}

	if err := config.Validate(); err != nil {
		return err
	}
	if err := configs.Save(s, config); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Result(true, "Configuration saved to "+ui.Path.Sprint(s.ConfigPath)))
	return nil
}
