package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/goccy/go-json"
)

const (
	// SaltSize is the size of the PBKDF2 salt in new key bundles.
	SaltSize = 16
)

// PrivateKeyBundle is the password-wrapped private key the server stores
// for each account. All fields are standard Base64.
type PrivateKeyBundle struct {
	EncPrivateKey string `json:"encPrivateKey"`
	Salt          string `json:"salt"`
	IV            string `json:"iv"`
}

// ParsePrivateKeyBundle decodes the JSON bundle returned by the server.
func ParsePrivateKeyBundle(data []byte) (*PrivateKeyBundle, error) {
	var b PrivateKeyBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: private key bundle: %v", kerrors.ErrMalformedResponse, err)
	}
	if b.EncPrivateKey == "" || b.Salt == "" || b.IV == "" {
		return nil, fmt.Errorf("%w: private key bundle is incomplete", kerrors.ErrMalformedResponse)
	}
	return &b, nil
}

// Marshal encodes the bundle as JSON.
func (b *PrivateKeyBundle) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// SaltBytes and IVBytes decode the bundle's Base64 fields.
func (b *PrivateKeyBundle) SaltBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.Salt)
}

func (b *PrivateKeyBundle) IVBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.IV)
}

// NewPrivateKeyBundle wraps key under a key derived from password with a
// fresh salt and IV.
func NewPrivateKeyBundle(password []byte, key *rsa.PrivateKey) (*PrivateKeyBundle, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	derived, err := PBKDF2{}.Encrypt(Params{Input: password, Salt: salt})
	if err != nil {
		return nil, err
	}
	defer Wipe(derived)

	encoded, err := MarshalPrivateKey(key)
	if err != nil {
		return nil, err
	}
	defer Wipe(encoded)

	sealed, err := AESGCM{}.Encrypt(Params{Input: encoded, Key: derived, IV: iv})
	if err != nil {
		return nil, err
	}

	return &PrivateKeyBundle{
		EncPrivateKey: string(sealed),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		IV:            base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// DeriveKey stretches password over salt into the key that wraps the
// private key. The caller owns and must wipe the result.
func DeriveKey(password, salt []byte) ([]byte, error) {
	return PBKDF2{}.Encrypt(Params{Input: password, Salt: salt})
}

// OpenPrivateKey unwraps encPrivateKey with a key from DeriveKey.
//
// Any failure, including GCM authentication failure, is reported as
// ErrIncorrectPassword: with a wrong password the two cases are
// indistinguishable.
func OpenPrivateKey(derived, iv []byte, encPrivateKey string) (*rsa.PrivateKey, error) {
	plaintext, err := AESGCM{}.Decrypt(Params{Input: []byte(encPrivateKey), Key: derived, IV: iv})
	if err != nil {
		return nil, kerrors.ErrIncorrectPassword
	}
	defer Wipe(plaintext)

	key, err := ParsePrivateKey(plaintext)
	if err != nil {
		return nil, kerrors.ErrIncorrectPassword
	}
	return key, nil
}
