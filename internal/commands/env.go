package commands

import (
	"context"
	"crypto/rsa"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/reposync"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

// Env holds what commands operate on. It is built once at startup and
// shared by every command.
type Env struct {
	Session   *session.Session
	Repo      *session.CurrentRepo
	Signer    *signer.Signer
	Transport transport.Transport
	Prompter  prompt.Prompter
	Sync      *reposync.Syncer
	Audit     *audit.Trail
	Log       logger.Logger

	// ReposPath is the directory holding repository archives.
	ReposPath string

	// KeyBits is the RSA modulus size for new accounts.
	KeyBits int

	mu         sync.Mutex
	pendingKey *rsa.PublicKey
}

// NewEnv wires a signer and syncer over sess, repo and tr.
func NewEnv(sess *session.Session, repo *session.CurrentRepo, tr transport.Transport, p prompt.Prompter, log logger.Logger) *Env {
	sgn := signer.New(sess)
	return &Env{
		Session:   sess,
		Repo:      repo,
		Signer:    sgn,
		Transport: tr,
		Prompter:  p,
		Sync:      reposync.New(sess, repo, sgn, tr, log),
		Log:       log,
		KeyBits:   crypto.DefaultKeyBits,
	}
}

// setPendingKey remembers the public key of a user just created, for the
// SHARE_KEY step that follows.
func (e *Env) setPendingKey(key *rsa.PublicKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingKey = key
}

func (e *Env) takePendingKey() *rsa.PublicKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := e.pendingKey
	e.pendingKey = nil
	return key
}

// archivePath returns where the archive of the named repository lives.
func (e *Env) archivePath(name string) (string, error) {
	if name == "" {
		return "", kerrors.ErrNoRepository
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: repository name %q", kerrors.ErrInvalidInput, name)
	}
	return filepath.Join(e.ReposPath, name+".bundle"), nil
}

func (e *Env) audit(entry audit.Entry) {
	if entry.User == "" {
		entry.User = e.Session.Username()
	}
	e.Audit.Log(entry)
}

// NewStandardRegistry registers every zkgit command against env.
func NewStandardRegistry(env *Env) *Registry {
	r := NewRegistry()
	r.Register(NameLogin, loginCmd{env})
	r.Register(NameTOTP, totpCmd{env})
	r.Register(NameUnlockKey, unlockKeyCmd{env})
	r.Register(NameGetAESKey, getAESKeyCmd{env})
	r.Register(NameUnlockAESKey, unlockAESKeyCmd{env})
	r.Register(NameStatus, statusCmd{env})
	r.Register(NameLogout, logoutCmd{env})
	r.Register(NameExit, CommandFunc(func(_ context.Context) string { return ExitSentinel }))
	r.Register(NameNewUser, newUserCmd{env})
	r.Register(NameShareKey, shareKeyCmd{env})
	r.Register(NameDeleteUser, deleteUserCmd{env})
	r.Register(NameCheck, checkCmd{env})
	r.Register(NameRequest, requestCmd{env})
	r.Register(NamePush, pushCmd{env})
	return r
}
