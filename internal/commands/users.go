package commands

import (
	"context"
	"encoding/base64"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

// newUserCmd creates an account: a fresh key pair, its private key wrapped
// under the initial password, registered with the server. The chain then
// shares the repository key with the new user.
type newUserCmd struct{ env *Env }

func (c newUserCmd) Execute(ctx context.Context) string {
	e := c.env

	if !e.Session.HasAccessToken() {
		return failure(kerrors.ErrNoValidLogin)
	}
	if !e.Session.HasAESKey() {
		return failure(kerrors.ErrKeyNotFound)
	}

	name, err := prompt.Ask(ctx, e.Prompter, prompt.Username, prompt.Attempts)
	if err != nil {
		return failureWith("User creation aborted", kerrors.KindInput)
	}
	e.Session.SetUserToModify(name)

	pw, err := prompt.AskSecret(ctx, e.Prompter, prompt.Password, prompt.Attempts)
	if err != nil {
		return failureWith("User creation aborted", kerrors.KindInput)
	}
	defer crypto.Wipe(pw)

	key, err := crypto.GenerateKeyPair(e.KeyBits)
	if err != nil {
		return failure(err)
	}
	defer crypto.WipePrivateKey(key)

	bundle, err := crypto.NewPrivateKeyBundle(pw, key)
	if err != nil {
		return failure(err)
	}
	bundleJSON, err := bundle.Marshal()
	if err != nil {
		return failure(err)
	}
	publicKey, err := crypto.MarshalPublicKey(&key.PublicKey)
	if err != nil {
		return failure(err)
	}

	req, err := e.Signer.Authenticated(
		signer.F("newUsername", name),
		signer.F("publicKey", publicKey),
		signer.F("privateKey", string(bundleJSON)),
	)
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointCreateUser, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		e.audit(audit.Entry{Operation: audit.OpCreateUser, TargetUser: name, Error: err.Error()})
		return failure(err)
	}

	e.audit(audit.Entry{Operation: audit.OpCreateUser, TargetUser: name})
	pub := key.PublicKey
	e.setPendingKey(&pub)
	return success(NameShareKey, "publicKey", publicKey)
}

// shareKeyCmd wraps the repository key for the user just created.
type shareKeyCmd struct{ env *Env }

func (c shareKeyCmd) Execute(ctx context.Context) string {
	e := c.env

	pub := e.takePendingKey()
	if pub == nil {
		return failure(kerrors.ErrKeyNotFound)
	}
	aesKey := e.Session.AESKey()
	defer crypto.Wipe(aesKey)
	if len(aesKey) == 0 {
		return failure(kerrors.ErrKeyNotFound)
	}

	wrapped, err := crypto.For(crypto.KindRSAOAEP).Encrypt(crypto.Params{Input: aesKey, PublicKey: pub})
	if err != nil {
		return failure(err)
	}

	iv := e.Session.IV()
	defer crypto.Wipe(iv)

	target := e.Session.UserToModify()
	req, err := e.Signer.Authenticated(
		signer.F("targetUsername", target),
		signer.F("encAesKey", string(wrapped)),
		signer.F("iv", base64.StdEncoding.EncodeToString(iv)),
	)
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointShareKey, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}

	e.audit(audit.Entry{Operation: audit.OpShareKey, TargetUser: target})
	return done("Shared repository key with " + target)
}

// deleteUserCmd removes an account.
type deleteUserCmd struct{ env *Env }

func (c deleteUserCmd) Execute(ctx context.Context) string {
	e := c.env

	if !e.Session.HasAccessToken() {
		return failure(kerrors.ErrNoValidLogin)
	}

	name, err := prompt.Ask(ctx, e.Prompter, prompt.Username, prompt.Attempts)
	if err != nil {
		return failureWith("User deletion aborted", kerrors.KindInput)
	}
	e.Session.SetUserToModify(name)

	req, err := e.Signer.Authenticated(signer.F("targetUsername", name))
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointDeleteUser, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		e.audit(audit.Entry{Operation: audit.OpDeleteUser, TargetUser: name, Error: err.Error()})
		return failure(err)
	}

	e.audit(audit.Entry{Operation: audit.OpDeleteUser, TargetUser: name})
	return done("Deleted user " + name)
}
