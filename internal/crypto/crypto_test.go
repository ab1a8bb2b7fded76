package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// loadTestKey generates one 2048-bit key shared by every test in the package.
func loadTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := GenerateKeyPair(2048)
		if err != nil {
			t.Fatalf("Failed to generate test key: %v", err)
		}
		testKey = key
	})
	if testKey == nil {
		t.Fatal("Test key unavailable")
	}
	return testKey
}

func testAESKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func testIV() []byte {
	return bytes.Repeat([]byte{0x07}, NonceSize)
}

func TestAESGCMRoundTrip(t *testing.T) {
	names := []string{
		"a",
		"my-repo",
		"Repo With Spaces ~!@#$%^&*()",
		strings.Repeat("x", 255),
	}

	for _, enc := range []Encoding{Base64, Hex} {
		h := AESGCM{Encoding: enc}
		for _, name := range names {
			sealed, err := h.Encrypt(Params{Input: []byte(name), Key: testAESKey(), IV: testIV()})
			if err != nil {
				t.Fatalf("Encrypt(%q) failed: %v", name, err)
			}
			opened, err := h.Decrypt(Params{Input: sealed, Key: testAESKey(), IV: testIV()})
			if err != nil {
				t.Fatalf("Decrypt(%q) failed: %v", name, err)
			}
			if string(opened) != name {
				t.Errorf("Round trip mismatch: got %q, want %q", opened, name)
			}
		}
	}
}

func TestAESGCMIsDeterministicForFixedIV(t *testing.T) {
	h := For(KindAESGCMHex)
	a, err := h.Encrypt(Params{Input: []byte("repo"), Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := h.Encrypt(Params{Input: []byte("repo"), Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Expected identical ciphertexts, got %s and %s", a, b)
	}
	for _, c := range string(a) {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("Expected lowercase hex output, got %s", a)
		}
	}
}

func TestAESGCMWrongKey(t *testing.T) {
	h := AESGCM{}
	sealed, err := h.Encrypt(Params{Input: []byte("secret"), Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	wrong := bytes.Repeat([]byte{0x43}, KeySize)
	_, err = h.Decrypt(Params{Input: sealed, Key: wrong, IV: testIV()})
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed, got %v", err)
	}
}

func TestAESGCMRejectsBadKeyLength(t *testing.T) {
	_, err := AESGCM{}.Encrypt(Params{Input: []byte("x"), Key: []byte("short"), IV: testIV()})
	if !errors.Is(err, kerrors.ErrInvalidKeyLength) {
		t.Errorf("Expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestAESGCMRequiresIV(t *testing.T) {
	_, err := AESGCM{}.Encrypt(Params{Input: []byte("x"), Key: testAESKey()})
	if !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestAESGCMFileInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.bundle")
	content := []byte("PACK\x00\x01 archive bytes")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}

	iv, err := AESGCMFile{}.Encrypt(Params{Path: path, Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if string(iv) != base64.StdEncoding.EncodeToString(testIV()) {
		t.Errorf("Expected the Base64 session IV, got %q", iv)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read encrypted archive: %v", err)
	}
	if bytes.Contains(encrypted, []byte("archive bytes")) {
		t.Fatal("Encrypted archive still contains plaintext")
	}
	sealed, err := AESGCM{}.Encrypt(Params{Input: content, Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("AESGCM Encrypt failed: %v", err)
	}
	if base64.StdEncoding.EncodeToString(encrypted) != string(sealed) {
		t.Error("Expected the file to hold the same ciphertext as AESGCM under the session IV")
	}

	out := filepath.Join(dir, "restored.bundle")
	if _, err := (AESGCMFile{}).Decrypt(Params{Path: path, OutPath: out, Key: testAESKey(), IV: testIV()}); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	restored, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read restored archive: %v", err)
	}
	if !bytes.Equal(restored, content) {
		t.Errorf("Restored archive mismatch: got %q", restored)
	}
}

func TestAESGCMFileAcceptsPrefixedNonce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.bundle")
	content := []byte("PACK prefixed archive")

	block, err := aes.NewCipher(testAESKey())
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("NewGCM failed: %v", err)
	}
	nonce := bytes.Repeat([]byte{0x5a}, NonceSize)
	if err := os.WriteFile(path, aead.Seal(nonce, nonce, content, nil), 0600); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}

	out := filepath.Join(dir, "restored.bundle")
	n, err := AESGCMFile{}.Decrypt(Params{Path: path, OutPath: out, Key: testAESKey(), IV: testIV()})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(n) != strconv.Itoa(len(content)) {
		t.Errorf("Expected %d bytes written, got %s", len(content), n)
	}
	restored, _ := os.ReadFile(out)
	if !bytes.Equal(restored, content) {
		t.Errorf("Restored archive mismatch: got %q", restored)
	}
}

func TestAESGCMFileRequiresIV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.bundle")
	if err := os.WriteFile(path, []byte("data"), 0600); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	_, err := AESGCMFile{}.Encrypt(Params{Path: path, Key: testAESKey()})
	if !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestAESGCMFileTamperedCiphertext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.bundle")
	if err := os.WriteFile(path, []byte("data"), 0600); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	if _, err := (AESGCMFile{}).Encrypt(Params{Path: path, Key: testAESKey(), IV: testIV()}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to rewrite archive: %v", err)
	}

	out := filepath.Join(dir, "out")
	_, err := AESGCMFile{}.Decrypt(Params{Path: path, OutPath: out, Key: testAESKey(), IV: testIV()})
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("Expected no output file after failed decryption")
	}
}

func TestRSAOAEPWrapsAESKey(t *testing.T) {
	key := loadTestKey(t)
	aesKey := testAESKey()

	wrapped, err := RSAOAEP{}.Encrypt(Params{Input: aesKey, PublicKey: &key.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	unwrapped, err := RSAOAEP{}.Decrypt(Params{Input: wrapped, PrivateKey: key})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(unwrapped, aesKey) {
		t.Error("Unwrapped key does not match")
	}
}

func TestRSAOAEPMissingKey(t *testing.T) {
	_, err := RSAOAEP{}.Decrypt(Params{Input: []byte("abc")})
	if !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestRSASignatureSignAndVerify(t *testing.T) {
	key := loadTestKey(t)
	msg := []byte("5d41402abc4b2a76b9719d911017c592")

	sig, err := RSASignature{}.Encrypt(Params{Input: msg, PrivateKey: key})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if bytes.ContainsAny(sig, "+/") {
		t.Errorf("Expected URL-safe Base64, got %s", sig)
	}

	if _, err := (RSASignature{}).Decrypt(Params{Input: msg, Signature: sig, PublicKey: &key.PublicKey}); err != nil {
		t.Errorf("Verify failed: %v", err)
	}

	_, err = RSASignature{}.Decrypt(Params{Input: []byte("tampered"), Signature: sig, PublicKey: &key.PublicKey})
	if !errors.Is(err, kerrors.ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature, got %v", err)
	}
}

func TestSHA256KnownVector(t *testing.T) {
	got := HashString("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("HashString(abc) = %s, want %s", got, want)
	}
}

func TestSHA256FileMatchesText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("abc"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	got, err := SHA256File{}.Encrypt(Params{Path: path})
	if err != nil {
		t.Fatalf("SHA256File failed: %v", err)
	}
	if string(got) != HashString("abc") {
		t.Errorf("File hash %s does not match text hash", got)
	}
}

func TestPBKDF2(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a, err := PBKDF2{}.Encrypt(Params{Input: []byte("correct horse 1!"), Salt: salt})
	if err != nil {
		t.Fatalf("PBKDF2 failed: %v", err)
	}
	if len(a) != KeySize {
		t.Fatalf("Expected %d byte key, got %d", KeySize, len(a))
	}
	b, _ := PBKDF2{}.Encrypt(Params{Input: []byte("correct horse 1!"), Salt: salt})
	if !bytes.Equal(a, b) {
		t.Error("Expected deterministic derivation")
	}
	c, _ := PBKDF2{}.Encrypt(Params{Input: []byte("correct horse 2!"), Salt: salt})
	if bytes.Equal(a, c) {
		t.Error("Different passwords produced the same key")
	}

	if _, err := (PBKDF2{}).Encrypt(Params{Salt: salt}); err == nil {
		t.Error("Expected error for empty password")
	}
}

func TestWipe(t *testing.T) {
	b := []byte("sensitive")
	Wipe(b)
	for _, c := range b {
		if c != 0 {
			t.Fatalf("Expected zeroed buffer, got %q", b)
		}
	}
}
