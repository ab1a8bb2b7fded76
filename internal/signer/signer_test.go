package signer

import (
	"errors"
	"testing"
	"time"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.UnixMilli(1700000000123)
}

func TestSignUnsignedWithoutPrivateKey(t *testing.T) {
	s := New(session.New()).WithClock(fixedClock)

	req, err := s.Sign(F("accountNumber", "1234567890123456789012345"), F("username", "alice"))
	require.NoError(t, err)

	assert.Equal(t, "accountNumber=1234567890123456789012345&username=alice&timestamp=1700000000123", req.Canonical())
	assert.Equal(t, crypto.HashString(req.Canonical()), req.Hash())
	assert.False(t, req.Signed())

	fields := req.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, FieldTimestamp, fields[2].Key)
	assert.Equal(t, FieldHash, fields[3].Key)

	assert.NoError(t, Verify(fields, nil))
}

func TestSignWithPrivateKey(t *testing.T) {
	key, err := crypto.GenerateKeyPair(2048)
	require.NoError(t, err)

	sess := session.New()
	sess.SetPrivateKey(key)
	s := New(sess).WithClock(fixedClock)

	req, err := s.Sign(F("repoId", "abc"))
	require.NoError(t, err)
	require.True(t, req.Signed())

	fields := req.Fields()
	assert.Equal(t, FieldSignature, fields[len(fields)-1].Key)
	assert.NoError(t, Verify(fields, &key.PublicKey))

	sig, ok := req.Get(FieldSignature)
	require.True(t, ok)
	assert.NotContains(t, sig, "+")
	assert.NotContains(t, sig, "/")
}

func TestVerifyDetectsTampering(t *testing.T) {
	key, err := crypto.GenerateKeyPair(2048)
	require.NoError(t, err)

	sess := session.New()
	sess.SetPrivateKey(key)
	req, err := New(sess).WithClock(fixedClock).Sign(F("repoId", "abc"))
	require.NoError(t, err)

	fields := req.Fields()
	fields[0].Value = "evil"
	assert.Error(t, Verify(fields, &key.PublicKey))

	other, err := crypto.GenerateKeyPair(2048)
	require.NoError(t, err)
	err = Verify(req.Fields(), &other.PublicKey)
	assert.True(t, errors.Is(err, kerrors.ErrInvalidSignature))
}

func TestSignRejectsReservedFields(t *testing.T) {
	_, err := New(session.New()).Sign(F("hash", "x"))
	assert.Error(t, err)
}

func TestAuthenticatedRequiresAccessToken(t *testing.T) {
	sess := session.New()
	s := New(sess).WithClock(fixedClock)

	_, err := s.Authenticated(F("repoId", "abc"))
	assert.True(t, errors.Is(err, kerrors.ErrNoValidLogin))

	sess.SetAccountNumber("1234567890123456789012345")
	sess.SetUsername("alice")
	sess.SetAccessToken([]byte("tok"))

	req, err := s.Authenticated(F("repoId", "abc"))
	require.NoError(t, err)
	assert.Equal(t, "accountNumber=1234567890123456789012345&username=alice&accessToken=tok&repoId=abc&timestamp=1700000000123", req.Canonical())
}
