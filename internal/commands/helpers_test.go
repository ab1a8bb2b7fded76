package commands

import (
	"bytes"
	"crypto/rsa"
	"encoding/base64"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/crypto"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
	"github.com/PolarWolf314/zkgit/internal/transport/transporttest"
	"github.com/stretchr/testify/require"
)

const (
	testAccount  = "1234567890123456789012345"
	testUsername = "alice"
	testTOTP     = "042539"
	testPassword = "Correct-Horse-42"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

func loadTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = crypto.GenerateKeyPair(2048)
	})
	require.NoError(t, testKeyErr)
	return testKey
}

// account is the server-side view of one user.
type account struct {
	key    *rsa.PrivateKey
	bundle []byte
	token  []byte
	aesKey []byte
	iv     []byte
}

func newAccount(t *testing.T) *account {
	t.Helper()
	key := loadTestKey(t)

	bundle, err := crypto.NewPrivateKeyBundle([]byte(testPassword), key)
	require.NoError(t, err)
	data, err := bundle.Marshal()
	require.NoError(t, err)

	return &account{
		key:    key,
		bundle: data,
		token:  bytes.Repeat([]byte("a"), session.AccessTokenLength),
		aesKey: bytes.Repeat([]byte{0x11}, 32),
		iv:     bytes.Repeat([]byte{0x22}, crypto.NonceSize),
	}
}

func (a *account) wrap(t *testing.T, plaintext []byte) string {
	t.Helper()
	out, err := crypto.For(crypto.KindRSAOAEP).Encrypt(crypto.Params{Input: plaintext, PublicKey: &a.key.PublicKey})
	require.NoError(t, err)
	return string(out)
}

// serve registers the login endpoints of a server holding a.
func (a *account) serve(t *testing.T, fake *transporttest.Fake) {
	t.Helper()
	encToken := a.wrap(t, a.token)
	encAESKey := a.wrap(t, a.aesKey)

	fake.Handle(transport.EndpointLogin, func(req *signer.Request) (transport.Reply, error) {
		if v, _ := req.Get("accountNumber"); v != testAccount {
			return transport.Reply{"error": "No user with that account"}, nil
		}
		return transport.Reply{"status": transport.StatusOK}, nil
	})
	fake.Handle(transport.EndpointValidateTOTP, func(req *signer.Request) (transport.Reply, error) {
		if v, _ := req.Get("totp"); v != testTOTP {
			return transport.Reply{"error": "Invalid code"}, nil
		}
		return transport.Reply{
			"status":         transport.StatusOK,
			"encAccessToken": encToken,
			"privateKey":     string(a.bundle),
		}, nil
	})
	fake.Handle(transport.EndpointGetAESKey, a.authenticated(func(*signer.Request) transport.Reply {
		return transport.Reply{
			"status":    transport.StatusOK,
			"encAesKey": encAESKey,
			"iv":        base64.StdEncoding.EncodeToString(a.iv),
		}
	}))
	fake.Handle(transport.EndpointStatus, a.authenticated(func(*signer.Request) transport.Reply {
		return transport.Reply{"status": transport.StatusOK}
	}))
	fake.Handle(transport.EndpointLogout, a.authenticated(func(*signer.Request) transport.Reply {
		return transport.Reply{"status": transport.StatusOK}
	}))
}

// authenticated checks the access token and the request signature before
// calling h.
func (a *account) authenticated(h func(*signer.Request) transport.Reply) transporttest.Handler {
	return func(req *signer.Request) (transport.Reply, error) {
		if tok, _ := req.Get("accessToken"); tok != string(a.token) {
			return transport.Reply{"error": "No valid login"}, nil
		}
		if err := signer.Verify(req.Fields(), &a.key.PublicKey); err != nil {
			return transport.Reply{"error": "bad signature"}, nil
		}
		return h(req), nil
	}
}

type harness struct {
	env    *Env
	fake   *transporttest.Fake
	script *prompt.Script
	disp   *Dispatcher
}

func newHarness(t *testing.T, answers ...string) *harness {
	t.Helper()

	fake := transporttest.New()
	script := prompt.NewScript(answers...)
	env := NewEnv(session.New(), session.NewCurrentRepo(), fake, script, logger.Discard())
	env.ReposPath = t.TempDir()
	env.Audit = audit.New(filepath.Join(t.TempDir(), "audit.jsonl"), "test-client")
	env.KeyBits = 2048

	return &harness{
		env:    env,
		fake:   fake,
		script: script,
		disp:   NewDispatcher(NewStandardRegistry(env), env.Session, logger.Discard()),
	}
}

// login runs the full chain against a and requires it to succeed.
func (h *harness) login(t *testing.T, a *account) {
	t.Helper()
	h.script = prompt.NewScript(testAccount, testUsername, testTOTP, testPassword)
	h.env.Prompter = h.script
	out := h.disp.Execute(t.Context(), NameLogin).Outcome()
	require.True(t, out.Success, "login failed: %s", out.Message)
}
