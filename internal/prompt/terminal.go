package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"golang.org/x/term"
)

// Prompter reads user input for the interactive commands.
type Prompter interface {
	// ReadLine prompts with label and returns the trimmed line.
	ReadLine(ctx context.Context, label string) (string, error)

	// ReadSecret prompts with label without echoing input. The caller owns
	// the returned buffer and must wipe it.
	ReadSecret(ctx context.Context, label string) ([]byte, error)

	// Notify shows a message without reading anything.
	Notify(msg string)
}

// Terminal prompts on stderr and reads from stdin. Reads are serialized.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminal returns a prompter bound to the process terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
		fd:  int(os.Stdin.Fd()),
	}
}

func (t *Terminal) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", kerrors.ErrAborted
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, label)

	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", kerrors.ErrAborted
	}
	if ctx.Err() != nil {
		return "", kerrors.ErrAborted
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret falls back to a plain line read when stdin is not a terminal,
// which is what piped input in scripts and tests provides.
func (t *Terminal) ReadSecret(ctx context.Context, label string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, kerrors.ErrAborted
	}
	if !term.IsTerminal(t.fd) {
		line, err := t.ReadLine(ctx, label)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, label)
	secret, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out) // Add newline after hidden input

	if err != nil || ctx.Err() != nil {
		return nil, kerrors.ErrAborted
	}
	return secret, nil
}

func (t *Terminal) Notify(msg string) {
	fmt.Fprintln(t.out, msg)
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
