package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// NonceSize is the standard AES-GCM nonce size. Session IVs have this
// length.
const NonceSize = 12

// AESGCM encrypts Input with Key and IV using AES-GCM and a 128-bit tag.
//
// Encrypt returns the ciphertext rendered in Encoding. Decrypt expects Input
// in the same encoding and returns the raw plaintext.
type AESGCM struct {
	Encoding Encoding
}

func (a AESGCM) Encrypt(p Params) ([]byte, error) {
	aead, err := newGCM(p.Key, len(p.IV))
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, p.IV, p.Input, nil)
	return a.encode(sealed), nil
}

func (a AESGCM) Decrypt(p Params) ([]byte, error) {
	aead, err := newGCM(p.Key, len(p.IV))
	if err != nil {
		return nil, err
	}
	sealed, err := a.decode(p.Input)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	plaintext, err := aead.Open(nil, p.IV, sealed, nil)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	return plaintext, nil
}

func (a AESGCM) encode(b []byte) []byte {
	if a.Encoding == Hex {
		out := make([]byte, hex.EncodedLen(len(b)))
		hex.Encode(out, b)
		return out
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out
}

func (a AESGCM) decode(b []byte) ([]byte, error) {
	if a.Encoding == Hex {
		out := make([]byte, hex.DecodedLen(len(b)))
		n, err := hex.Decode(out, b)
		return out[:n], err
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(b)))
	n, err := base64.StdEncoding.Decode(out, b)
	return out[:n], err
}

// AESGCMFile encrypts the file at Path into OutPath with Key and IV. The
// file holds the ciphertext and tag only, framed exactly as AESGCM frames
// its output.
//
// Encrypt returns IV as standard Base64, the form the upload request
// carries. Decrypt also accepts a file whose first NonceSize bytes are the
// nonce, and returns the number of plaintext bytes written, in decimal.
type AESGCMFile struct{}

func (AESGCMFile) Encrypt(p Params) ([]byte, error) {
	aead, err := newGCM(p.Key, len(p.IV))
	if err != nil {
		return nil, err
	}

	plaintext, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
	}
	defer Wipe(plaintext)

	ciphertext := aead.Seal(nil, p.IV, plaintext, nil)
	if err := writeFileAtomic(outPath(p), ciphertext, 0600); err != nil {
		return nil, err
	}

	return []byte(base64.StdEncoding.EncodeToString(p.IV)), nil
}

func (AESGCMFile) Decrypt(p Params) ([]byte, error) {
	aead, err := newGCM(p.Key, len(p.IV))
	if err != nil {
		return nil, err
	}

	ciphertext, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
	}

	plaintext, err := aead.Open(nil, p.IV, ciphertext, nil)
	if err != nil {
		plaintext, err = openPrefixed(p.Key, ciphertext)
		if err != nil {
			return nil, err
		}
	}
	defer Wipe(plaintext)

	if err := writeFileAtomic(outPath(p), plaintext, 0600); err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf("%d", len(plaintext))), nil
}

// openPrefixed opens data laid out as nonce followed by ciphertext.
func openPrefixed(key, data []byte) ([]byte, error) {
	aead, err := newGCM(key, NonceSize)
	if err != nil {
		return nil, err
	}
	if len(data) < NonceSize+aead.Overhead() {
		return nil, kerrors.ErrDecryptFailed
	}
	plaintext, err := aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	return plaintext, nil
}

func outPath(p Params) string {
	if p.OutPath != "" {
		return p.OutPath
	}
	return p.Path
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes", kerrors.ErrInvalidKeyLength, len(key))
	}
	if nonceSize == 0 {
		return nil, fmt.Errorf("%w: missing IV", kerrors.ErrKeyNotFound)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKeyLength, err)
	}
	if nonceSize == NonceSize {
		return cipher.NewGCM(block)
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".zkgit-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
