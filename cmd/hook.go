package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/zkgit/internal/bridge"
	"github.com/PolarWolf314/zkgit/internal/configs"
	"github.com/PolarWolf314/zkgit/internal/ui"
)

var hookPort int

// ErrHookFailed is returned when a hook request does not succeed. The
// reason has already been printed.
var ErrHookFailed = errors.New("hook command failed")

func init() {
	HookCmd.Flags().IntVarP(&hookPort, "port", "p", -1, "bridge port (defaults to bridge_port from config)")
}

func resetHookState() {
	hookPort = -1
}

// HookCmd forwards one command to the running shell over the bridge.
var HookCmd = &cobra.Command{
	Use:   "hook COMMAND [REPO [SIGNATURE]]",
	Short: "Send a command to the running session",
	Long: `Sends one command to the running zkgit shell through the local bridge
and prints the reply. Intended for Git hooks, e.g. in .git/hooks/pre-push:

  zkgit hook PUSH myrepo "$(cat .zkgit-signature)"

Exits non-zero unless the reply is SUCCESS.`,
	Args:          cobra.RangeArgs(1, 3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := hookPort
		if port < 0 {
			s, err := settings()
			if err != nil {
				return err
			}
			config, err := configs.Load(s)
			if err != nil {
				return err
			}
			port = config.BridgePort
		}
		Logger.Debugf("Sending %q to bridge on port %d", strings.Join(args, " "), port)

		reply, err := bridge.Send(context.Background(), port, hookLine(args))
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Result(false, "Is the zkgit shell running? "+err.Error()))
			return fmt.Errorf("%w: %w", ErrHookFailed, err)
		}

		ok := reply == bridge.ReplySuccess
		fmt.Fprintln(cmd.OutOrStdout(), ui.Result(ok, reply))
		if !ok {
			return ErrHookFailed
		}
		return nil
	},
}

func hookLine(args []string) string {
	line := make([]string, len(args))
	copy(line, args)
	line[0] = strings.ToUpper(line[0])
	return strings.Join(line, " ")
}
