package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/bridge"
	"github.com/PolarWolf314/zkgit/internal/commands"
	"github.com/PolarWolf314/zkgit/internal/configs"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/shell"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

var (
	shellPort     int
	shellNoBanner bool
	shellNoBridge bool
)

func init() {
	ShellCmd.Flags().IntVarP(&shellPort, "port", "p", -1, "bridge port (defaults to bridge_port from config)")
	ShellCmd.Flags().BoolVar(&shellNoBanner, "no-banner", false, "do not print the banner")
	ShellCmd.Flags().BoolVar(&shellNoBridge, "no-bridge", false, "do not start the local bridge")
}

func resetShellState() {
	shellPort = -1
	shellNoBanner = false
	shellNoBridge = false
}

// ShellCmd starts the interactive session. It is also what zkgit runs with
// no subcommand.
var ShellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long: `Starts an interactive session against the configured server.

Log in with LOGIN, then run CHECK, REQUEST or PUSH against a repository
selected with "repo NAME". While the session runs, a local bridge accepts
the same commands from Git hooks (see "zkgit hook").

Leaving the shell logs out and erases every credential from memory.`,
	Args: cobra.NoArgs,
	RunE: RunShell,
}

// RunShell wires the session, dispatcher and bridge and runs the shell
// until exit or interrupt.
func RunShell(cmd *cobra.Command, args []string) error {
	s, err := settings()
	if err != nil {
		return err
	}
	config, err := configs.Ensure(s)
	if err != nil {
		return err
	}
	Logger.Infof("Using server %s", config.ServerURL)

	sess := session.New()
	repo := session.NewCurrentRepo()
	terminal := prompt.NewTerminal()

	env := commands.NewEnv(sess, repo, transport.NewHTTP(config.ServerURL, config.Timeout(), Logger), terminal, Logger)
	env.ReposPath = config.ReposPath
	env.Audit = audit.New(s.AuditPath(), config.ClientID)

	registry := commands.NewStandardRegistry(env)
	disp := commands.NewDispatcher(registry, sess, Logger)

	out := cmd.OutOrStdout()
	sh := &shell.Shell{
		Dispatcher: disp,
		Session:    sess,
		Repo:       repo,
		Prompter:   terminal,
		Names:      registry.Names(),
		Out:        out,
		Log:        Logger,
		Banner:     !shellNoBanner,
		Busy: func(message string) func() {
			_, cleanup := startSpinner(out, message)
			return cleanup
		},
	}

	if !shellNoBridge {
		port := config.BridgePort
		if shellPort >= 0 {
			port = shellPort
		}
		srv := bridge.New(disp, repo, Logger)
		if err := srv.Start(port); err != nil {
			Logger.Warnf("Bridge not started: %v", err)
		}
		sh.Bridge = srv
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return sh.Run(ctx)
}
