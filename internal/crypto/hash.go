package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is the iteration count used to stretch passwords.
	PBKDF2Iterations = 100000

	// KeySize is the size in bytes of every symmetric key zkgit derives.
	KeySize = 32
)

// PBKDF2 derives a 256-bit key from the password in Input and Salt with
// HMAC-SHA512. Encrypt and Decrypt are identical and return the raw key.
type PBKDF2 struct{}

func (PBKDF2) Encrypt(p Params) ([]byte, error) {
	if len(p.Input) == 0 {
		return nil, fmt.Errorf("pbkdf2: empty password")
	}
	if len(p.Salt) == 0 {
		return nil, fmt.Errorf("pbkdf2: empty salt")
	}
	return pbkdf2.Key(p.Input, p.Salt, PBKDF2Iterations, KeySize, sha512.New), nil
}

func (h PBKDF2) Decrypt(p Params) ([]byte, error) {
	return h.Encrypt(p)
}

// SHA256 returns the lowercase hex digest of Input.
type SHA256 struct{}

func (SHA256) Encrypt(p Params) ([]byte, error) {
	sum := sha256.Sum256(p.Input)
	return []byte(hex.EncodeToString(sum[:])), nil
}

func (h SHA256) Decrypt(p Params) ([]byte, error) {
	return h.Encrypt(p)
}

// SHA256File returns the lowercase hex digest of the file at Path.
type SHA256File struct{}

func (SHA256File) Encrypt(p Params) ([]byte, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.Path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", p.Path, err)
	}
	return []byte(hex.EncodeToString(h.Sum(nil))), nil
}

func (h SHA256File) Decrypt(p Params) ([]byte, error) {
	return h.Encrypt(p)
}

// HashString is shorthand for the hex SHA-256 of s.
func HashString(s string) string {
	out, _ := SHA256{}.Encrypt(Params{Input: []byte(s)})
	return string(out)
}
