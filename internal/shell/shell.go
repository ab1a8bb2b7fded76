package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/PolarWolf314/zkgit/internal/commands"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/ui"
)

const (
	promptLabel     = "zkgit> "
	shutdownTimeout = 10 * time.Second
)

// Commands that only talk to the server. The spinner never runs over a
// prompt.
var networkOnly = map[string]bool{
	commands.NameStatus:  true,
	commands.NameLogout:  true,
	commands.NameCheck:   true,
	commands.NameRequest: true,
	commands.NamePush:    true,
}

// Dispatcher runs command chains one at a time. ExecuteWith and Exclusive
// run their func under the lock that serializes chains.
type Dispatcher interface {
	Execute(ctx context.Context, name string) commands.Response
	ExecuteWith(ctx context.Context, name string, prepare func()) commands.Response
	Exclusive(fn func())
}

// Bridge is the part of the bridge server the shell controls.
type Bridge interface {
	Start(port int) error
	Stop() error
	Port() int
}

// Shell reads command lines from a prompter until exit or interrupt.
type Shell struct {
	Dispatcher Dispatcher
	Bridge     Bridge
	Session    *session.Session
	Repo       *session.CurrentRepo
	Prompter   prompt.Prompter
	Names      []string
	Out        io.Writer
	Log        logger.Logger

	// Busy, when set, is started before a network-only command and the
	// returned func is called once it finishes.
	Busy func(message string) func()

	// Banner prints the title on Run.
	Banner bool
}

// Run processes lines until the user exits, input ends or ctx is cancelled,
// then shuts the session down.
func (s *Shell) Run(ctx context.Context) error {
	if s.Banner {
		fmt.Fprintln(s.Out)
		fmt.Fprint(s.Out, ui.Success.Sprint(figure.NewFigure("zkgit", "", true).String()))
		fmt.Fprintln(s.Out)
	}
	if s.Bridge != nil {
		fmt.Fprintln(s.Out, ui.BridgeStatus(s.Bridge.Port()))
	}
	fmt.Fprintf(s.Out, "Type %s for a list of commands.\n", ui.Code.Sprint("help"))

	for {
		line, err := s.readLine(ctx)
		if err != nil {
			s.Log.Debugf("Input closed: %v", err)
			break
		}
		if !s.Handle(ctx, line) {
			break
		}
	}

	return s.Shutdown(context.WithoutCancel(ctx))
}

func (s *Shell) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := s.Prompter.ReadLine(ctx, promptLabel)
		ch <- result{line, err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", kerrors.ErrAborted
	}
}

// Handle runs one input line and reports whether the shell should keep
// reading.
func (s *Shell) Handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch strings.ToLower(fields[0]) {
	case "help", "?":
		s.help()
		return true
	case "port":
		s.port(fields[1:])
		return true
	case "repo":
		s.repo(fields[1:])
		return true
	case "exit", "quit":
		s.Dispatcher.Execute(ctx, commands.NameExit)
		return false
	}

	name := strings.ToUpper(fields[0])
	var selectRepo func()
	if len(fields) > 1 {
		var sig string
		if len(fields) > 2 {
			sig = fields[2]
		}
		selectRepo = func() { s.Repo.Set(fields[1], sig) }
	}

	stop := func() {}
	if s.Busy != nil && networkOnly[name] {
		stop = s.Busy(fmt.Sprintf("Running %s...", name))
	}
	resp := s.Dispatcher.ExecuteWith(ctx, name, selectRepo)
	stop()

	out := resp.Outcome()
	fmt.Fprintln(s.Out, ui.Result(!out.Failed, message(name, out)))
	return true
}

func message(name string, out commands.Outcome) string {
	if out.Message != "" {
		return out.Message
	}
	if out.Failed {
		return name + " failed"
	}
	return name + " done"
}

func (s *Shell) help() {
	fmt.Fprintln(s.Out, "Commands:")
	for _, name := range s.Names {
		if name == commands.NameExit {
			continue
		}
		fmt.Fprintf(s.Out, "  %s\n", ui.Code.Sprint(name))
	}
	fmt.Fprintf(s.Out, "  %s %s\n", ui.Code.Sprint("repo"), ui.Muted.Sprint("NAME [SIGNATURE]"))
	fmt.Fprintf(s.Out, "  %s %s\n", ui.Code.Sprint("port"), ui.Muted.Sprint("N"))
	fmt.Fprintf(s.Out, "  %s\n", ui.Code.Sprint("exit"))
}

func (s *Shell) port(args []string) {
	if s.Bridge == nil {
		fmt.Fprintln(s.Out, ui.Result(false, "Bridge is disabled"))
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.Out, ui.BridgeStatus(s.Bridge.Port()))
		return
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 0 || port > 65535 {
		fmt.Fprintln(s.Out, ui.Result(false, "Invalid port "+ui.Highlight.Sprint(args[0])))
		return
	}
	if err := s.Bridge.Start(port); err != nil {
		fmt.Fprintln(s.Out, ui.Result(false, "Port "+args[0]+" unavailable"))
		return
	}
	fmt.Fprintln(s.Out, ui.BridgeStatus(s.Bridge.Port()))
}

func (s *Shell) repo(args []string) {
	switch len(args) {
	case 0:
		snap := s.Repo.Snapshot()
		if snap.Name == "" {
			fmt.Fprintln(s.Out, "No repository selected")
			return
		}
		fmt.Fprintf(s.Out, "Repository %s %s\n", ui.Highlight.Sprint(snap.Name), ui.Muted.Sprint(snap.Signature))
	case 1, 2:
		var sig string
		if len(args) == 2 {
			sig = args[1]
		}
		s.Dispatcher.Exclusive(func() { s.Repo.Set(args[0], sig) })
		fmt.Fprintln(s.Out, ui.Result(true, "Selected "+ui.Highlight.Sprint(args[0])))
	default:
		fmt.Fprintln(s.Out, ui.Result(false, "Usage: repo NAME [SIGNATURE]"))
	}
}

// Shutdown stops the bridge, then logs out when a session is held and erases
// all credentials. Credentials are erased even when logout or stopping the
// bridge fails.
func (s *Shell) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var stopErr error
	if s.Bridge != nil {
		if err := s.Bridge.Stop(); err != nil && !errors.Is(err, context.Canceled) {
			stopErr = fmt.Errorf("stopping bridge: %w", err)
		}
	}

	if s.Session.HasAccessToken() {
		out := s.Dispatcher.Execute(ctx, commands.NameLogout).Outcome()
		if out.Failed {
			s.Log.Warnf("Logout failed: %s", out.Message)
		}
	}
	s.Session.ClearUserData()
	s.Repo.Clear()
	return stopErr
}
