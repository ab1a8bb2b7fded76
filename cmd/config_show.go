package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/zkgit/internal/configs"
	"github.com/PolarWolf314/zkgit/internal/ui"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the configuration zkgit would run with, after defaults and
the ZKGIT_SERVER_URL and ZKGIT_BRIDGE_PORT overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		config, err := configs.Load(s)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if configShowJSON {
			data, err := json.MarshalIndent(struct {
				*configs.Config
				ConfigPath string `json:"config_path"`
				AuditPath  string `json:"audit_path"`
			}{config, s.ConfigPath, s.AuditPath()}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		rows := []struct{ key, value string }{
			{"config file", ui.Path.Sprint(s.ConfigPath)},
			{"server_url", ui.Highlight.Sprint(config.ServerURL)},
			{"bridge_port", fmt.Sprint(config.BridgePort)},
			{"repos_path", ui.Path.Sprint(config.ReposPath)},
			{"timeout_seconds", fmt.Sprint(config.TimeoutSeconds)},
			{"client_id", orMuted(config.ClientID)},
			{"audit log", ui.Path.Sprint(s.AuditPath())},
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%-16s %s\n", r.key+":", r.value)
		}
		return nil
	},
}

func orMuted(v string) string {
	if v == "" {
		return ui.Muted.Sprint("not set")
	}
	return v
}
