package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/session"
)

// MaxChain bounds how many commands one Execute call may run.
const MaxChain = 32

// Dispatcher runs a command and every command it chains to. Chains run one
// at a time, whether they come from the shell or the bridge.
type Dispatcher struct {
	registry *Registry
	sess     *session.Session
	log      logger.Logger

	mu        sync.Mutex
	last      Response
	reachable atomic.Bool
}

func NewDispatcher(registry *Registry, sess *session.Session, log logger.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, sess: sess, log: log}
}

// Reachable reports whether the server answered the most recent request.
func (d *Dispatcher) Reachable() bool {
	return d.reachable.Load()
}

// Execute runs the command registered as name and follows its chain. It
// returns the response of the last command run.
func (d *Dispatcher) Execute(ctx context.Context, name string) Response {
	return d.ExecuteWith(ctx, name, nil)
}

// ExecuteWith is Execute with prepare run first inside the same critical
// section, so state prepare sets up is what the chain sees.
func (d *Dispatcher) ExecuteWith(ctx context.Context, name string, prepare func()) Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prepare != nil {
		prepare()
	}
	return d.run(ctx, name)
}

// Exclusive runs fn while no chain is executing.
func (d *Dispatcher) Exclusive(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

func (d *Dispatcher) run(ctx context.Context, name string) Response {
	for step := 0; ; step++ {
		if step == MaxChain {
			return d.record(failureWith(
				fmt.Sprintf("CommandManager: chain exceeded %d commands at %s", MaxChain, name),
				kerrors.KindDispatch,
			))
		}
		if err := ctx.Err(); err != nil {
			return d.record(failure(fmt.Errorf("%w: %v", kerrors.ErrAborted, err)))
		}

		cmd, ok := d.registry.Lookup(name)
		if !ok {
			d.log.Errorf("Unknown command %q", name)
			return d.record(failure(fmt.Errorf("%w %s", kerrors.ErrUnknownCommand, name)))
		}

		d.log.Debugf("Running %s", name)
		raw := cmd.Execute(ctx)
		if raw == ExitSentinel {
			return d.last
		}

		resp := d.record(raw)
		out := resp.Outcome()
		d.logOutcome(name, out)

		switch {
		case out.Success:
			d.reachable.Store(true)
		case out.ConnectionFailure():
			d.reachable.Store(false)
		case out.Failed:
			d.reachable.Store(true)
		}

		if out.Failed && !out.Soft() {
			return resp
		}
		if out.Next == "" {
			return resp
		}

		if err := d.merge(resp); err != nil {
			d.log.Errorf("Response from %s carried malformed credentials: %v", name, err)
			return d.record(failure(err))
		}
		name = out.Next
	}
}

func (d *Dispatcher) record(raw string) Response {
	d.last = ParseResponse(raw)
	return d.last
}

func (d *Dispatcher) logOutcome(name string, out Outcome) {
	switch {
	case out.Failed:
		d.log.Errorf("%s: %s", name, out.Message)
	case out.Success && out.Message != "":
		d.log.Successf("%s: %s", name, out.Message)
	case out.Success:
		d.log.Debugf("%s succeeded, next %q", name, out.Next)
	default:
		d.log.Debugf("%s returned no status", name)
	}
}

// merge copies credential fields of resp into the session before the next
// command runs.
func (d *Dispatcher) merge(resp Response) error {
	for _, key := range resp.Keys() {
		value := resp.Value(key)
		switch key {
		case "accessToken":
			d.sess.SetAccessToken([]byte(value))
		case "encAccessToken":
			d.sess.SetEncAccessToken(value)
		case "encPrivateKey":
			d.sess.SetEncPrivateKey(value)
		case "encAesKey":
			d.sess.SetEncAESKey(value)
		case "username":
			d.sess.SetUsername(value)
		case "salt":
			b, err := decodeField(key, value)
			if err != nil {
				return err
			}
			d.sess.SetSalt(b)
			crypto.Wipe(b)
		case "iv":
			b, err := decodeField(key, value)
			if err != nil {
				return err
			}
			d.sess.SetIV(b)
			crypto.Wipe(b)
		case "aesKey":
			b, err := decodeField(key, value)
			if err != nil {
				return err
			}
			d.sess.SetAESKey(b)
		}
	}
	return nil
}

func decodeField(key, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s is not base64", kerrors.ErrMalformedResponse, key)
	}
	return b, nil
}
