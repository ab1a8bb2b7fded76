package commands

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/prompt"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

const msgLoginAborted = "Login aborted"

// loginCmd starts the login chain: identify the account and ask the server
// for a TOTP challenge.
type loginCmd struct{ env *Env }

func (c loginCmd) Execute(ctx context.Context) string {
	e := c.env

	if e.Session.HasAccessToken() {
		err := c.checkStoredLogin(ctx)
		if err == nil {
			return done("Already logged in")
		}
		if errors.Is(err, kerrors.ErrConnectionFailure) {
			return failure(err)
		}
		e.Log.Infof("Stored login is no longer valid, logging in again")
		e.Session.ClearUserData()
	}

	account, err := prompt.Ask(ctx, e.Prompter, prompt.AccountNumber, prompt.Attempts)
	if err != nil {
		return failureWith(msgLoginAborted, kerrors.KindInput)
	}
	username, err := prompt.Ask(ctx, e.Prompter, prompt.Username, prompt.Attempts)
	if err != nil {
		return failureWith(msgLoginAborted, kerrors.KindInput)
	}
	e.Session.SetAccountNumber(account)
	e.Session.SetUsername(username)

	req, err := e.Signer.Sign(
		signer.F("accountNumber", account),
		signer.F("username", username),
	)
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointLogin, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}

	return success(NameTOTP)
}

func (c loginCmd) checkStoredLogin(ctx context.Context) error {
	req, err := c.env.Signer.Authenticated()
	if err != nil {
		return err
	}
	reply, err := c.env.Transport.Post(ctx, transport.EndpointStatus, req)
	if err != nil {
		return err
	}
	return reply.Err()
}

// totpCmd answers the TOTP challenge and receives the wrapped credentials.
type totpCmd struct{ env *Env }

func (c totpCmd) Execute(ctx context.Context) string {
	e := c.env

	code, err := prompt.Ask(ctx, e.Prompter, prompt.TOTP, prompt.Attempts)
	if err != nil {
		return failureWith(msgLoginAborted, kerrors.KindInput)
	}

	req, err := e.Signer.Sign(
		signer.F("accountNumber", e.Session.AccountNumber()),
		signer.F("username", e.Session.Username()),
		signer.F("totp", code),
	)
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointValidateTOTP, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}

	encAccessToken := reply.Get("encAccessToken")
	if encAccessToken == "" {
		return failure(fmt.Errorf("%w: missing access token", kerrors.ErrMalformedResponse))
	}
	bundle, err := parseBundle(reply.Get("privateKey"))
	if err != nil {
		return failure(err)
	}

	kv := []string{
		"encAccessToken", encAccessToken,
		"encPrivateKey", bundle.EncPrivateKey,
		"salt", bundle.Salt,
		"iv", bundle.IV,
	}
	if encAESKey := reply.Get("encAesKey"); encAESKey != "" {
		kv = append(kv, "encAesKey", encAESKey)
	}
	return success(NameUnlockKey, kv...)
}

// parseBundle accepts the private-key bundle as JSON text or as Base64
// encoded JSON.
func parseBundle(raw string) (*crypto.PrivateKeyBundle, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing private key", kerrors.ErrMalformedResponse)
	}
	data := []byte(raw)
	if raw[0] != '{' {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: private key is neither JSON nor Base64", kerrors.ErrMalformedResponse)
		}
		data = decoded
	}
	return crypto.ParsePrivateKeyBundle(data)
}

// unlockKeyCmd derives the password key, unwraps the private key and with
// it the access token. A wrong password leaves the token unset.
type unlockKeyCmd struct{ env *Env }

func (c unlockKeyCmd) Execute(ctx context.Context) string {
	e := c.env

	salt := e.Session.Salt()
	defer crypto.Wipe(salt)
	iv := e.Session.IV()
	defer crypto.Wipe(iv)
	encPrivateKey := e.Session.EncPrivateKey()
	encAccessToken := e.Session.EncAccessToken()
	if len(salt) == 0 || len(iv) == 0 || encPrivateKey == "" || encAccessToken == "" {
		return failure(kerrors.ErrKeyNotFound)
	}

	pw, err := prompt.AskSecret(ctx, e.Prompter, prompt.Password, prompt.Attempts)
	if err != nil {
		return failureWith(msgLoginAborted, kerrors.KindInput)
	}
	e.Session.SetPassword(pw)

	err = e.Session.ConsumePassword(func(pw []byte) error {
		derived, err := crypto.DeriveKey(pw, salt)
		if err != nil {
			return err
		}
		e.Session.SetPBKDF2Hash(derived)
		return nil
	})
	if err != nil {
		return failure(err)
	}

	var key *rsa.PrivateKey
	err = e.Session.ConsumePBKDF2Hash(func(derived []byte) error {
		var err error
		key, err = crypto.OpenPrivateKey(derived, iv, encPrivateKey)
		return err
	})
	if err != nil {
		e.Log.Debugf("Private key did not unlock")
		return failure(kerrors.ErrIncorrectPassword)
	}

	token, err := crypto.For(crypto.KindRSAOAEP).Decrypt(crypto.Params{
		Input:      []byte(encAccessToken),
		PrivateKey: key,
	})
	if err != nil || len(token) != session.AccessTokenLength {
		crypto.Wipe(token)
		crypto.WipePrivateKey(key)
		return failure(kerrors.ErrIncorrectPassword)
	}

	err = e.Session.SetPrivateKey(key)
	crypto.WipePrivateKey(key)
	if err != nil {
		crypto.Wipe(token)
		return failure(err)
	}
	e.Session.SetAccessToken(token)
	crypto.Wipe(token)

	e.audit(audit.Entry{Operation: audit.OpLogin})
	return success(NameGetAESKey)
}

// getAESKeyCmd fetches the wrapped repository key.
type getAESKeyCmd struct{ env *Env }

func (c getAESKeyCmd) Execute(ctx context.Context) string {
	e := c.env

	if !e.Session.HasPrivateKey() {
		return failure(kerrors.ErrKeyNotFound)
	}
	req, err := e.Signer.Authenticated()
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointGetAESKey, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}

	encAESKey := reply.Get("encAesKey")
	if encAESKey == "" {
		return failure(fmt.Errorf("%w: missing repository key", kerrors.ErrMalformedResponse))
	}
	kv := []string{"encAesKey", encAESKey}
	if iv := reply.Get("iv"); iv != "" {
		kv = append(kv, "iv", iv)
	}
	return success(NameUnlockAESKey, kv...)
}

// unlockAESKeyCmd unwraps the repository key with the private key.
type unlockAESKeyCmd struct{ env *Env }

func (c unlockAESKeyCmd) Execute(_ context.Context) string {
	e := c.env

	encAESKey := e.Session.EncAESKey()
	if !e.Session.HasPrivateKey() || encAESKey == "" {
		return failure(kerrors.ErrKeyNotFound)
	}

	var aesKey []byte
	err := e.Session.WithPrivateKey(func(key *rsa.PrivateKey) error {
		var err error
		aesKey, err = crypto.For(crypto.KindRSAOAEP).Decrypt(crypto.Params{
			Input:      []byte(encAESKey),
			PrivateKey: key,
		})
		return err
	})
	if err != nil {
		return failure(err)
	}
	switch len(aesKey) {
	case 16, 24, 32:
	default:
		crypto.Wipe(aesKey)
		return failure(kerrors.ErrInvalidKeyLength)
	}
	e.Session.SetAESKey(aesKey)

	return done("Logged in as " + e.Session.Username())
}
