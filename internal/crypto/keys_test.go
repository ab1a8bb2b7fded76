package crypto

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

func TestPrivateKeyBundleUnlock(t *testing.T) {
	key := loadTestKey(t)
	password := []byte("Correct-Horse-42")

	bundle, err := NewPrivateKeyBundle(password, key)
	if err != nil {
		t.Fatalf("NewPrivateKeyBundle failed: %v", err)
	}

	raw, err := bundle.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := ParsePrivateKeyBundle(raw)
	if err != nil {
		t.Fatalf("ParsePrivateKeyBundle failed: %v", err)
	}

	salt, err := parsed.SaltBytes()
	if err != nil {
		t.Fatalf("SaltBytes failed: %v", err)
	}
	iv, err := parsed.IVBytes()
	if err != nil {
		t.Fatalf("IVBytes failed: %v", err)
	}

	derived, err := DeriveKey(password, salt)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	recovered, err := OpenPrivateKey(derived, iv, parsed.EncPrivateKey)
	if err != nil {
		t.Fatalf("OpenPrivateKey failed: %v", err)
	}

	// The recovered key must decrypt data wrapped under the original public key.
	token := bytes.Repeat([]byte("t"), 64)
	wrapped, err := RSAOAEP{}.Encrypt(Params{Input: token, PublicKey: &key.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	unwrapped, err := RSAOAEP{}.Decrypt(Params{Input: wrapped, PrivateKey: recovered})
	if err != nil {
		t.Fatalf("Decrypt with recovered key failed: %v", err)
	}
	if !bytes.Equal(unwrapped, token) {
		t.Error("Recovered key produced wrong plaintext")
	}
}

func TestPrivateKeyBundleWrongPassword(t *testing.T) {
	key := loadTestKey(t)
	bundle, err := NewPrivateKeyBundle([]byte("Correct-Horse-42"), key)
	if err != nil {
		t.Fatalf("NewPrivateKeyBundle failed: %v", err)
	}
	salt, _ := bundle.SaltBytes()
	iv, _ := bundle.IVBytes()

	derived, err := DeriveKey([]byte("Wrong-Horse-4242"), salt)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	_, err = OpenPrivateKey(derived, iv, bundle.EncPrivateKey)
	if !errors.Is(err, kerrors.ErrIncorrectPassword) {
		t.Errorf("Expected ErrIncorrectPassword, got %v", err)
	}
}

func TestParsePrivateKeyBundleIncomplete(t *testing.T) {
	_, err := ParsePrivateKeyBundle([]byte(`{"encPrivateKey":"abc"}`))
	if !errors.Is(err, kerrors.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
	_, err = ParsePrivateKeyBundle([]byte(`not json`))
	if !errors.Is(err, kerrors.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePrivateKeyFormats(t *testing.T) {
	key := loadTestKey(t)

	b64, err := MarshalPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPrivateKey failed: %v", err)
	}
	parsed, err := ParsePrivateKey(b64)
	if err != nil {
		t.Fatalf("ParsePrivateKey(base64) failed: %v", err)
	}
	if !parsed.Equal(key) {
		t.Error("Base64 PKCS#8 key mismatch")
	}

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	parsed, err = ParsePrivateKey(pkcs1)
	if err != nil {
		t.Fatalf("ParsePrivateKey(pkcs1) failed: %v", err)
	}
	if !parsed.Equal(key) {
		t.Error("PKCS#1 PEM key mismatch")
	}

	if _, err := ParsePrivateKey([]byte("garbage!")); !errors.Is(err, kerrors.ErrInvalidPrivateKey) {
		t.Errorf("Expected ErrInvalidPrivateKey, got %v", err)
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	key := loadTestKey(t)
	encoded, err := MarshalPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey failed: %v", err)
	}
	pub, err := ParsePublicKey(encoded)
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}
	if !pub.Equal(&key.PublicKey) {
		t.Error("Public key mismatch")
	}
}

func TestWipePrivateKey(t *testing.T) {
	key, err := GenerateKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	pub := key.PublicKey
	ciphertext, err := RSAOAEP{}.Encrypt(Params{Input: []byte("secret"), PublicKey: &pub})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	d := key.D
	WipePrivateKey(key)
	if d.Sign() != 0 {
		t.Error("Expected private exponent to be zeroed")
	}
	if _, err := (RSAOAEP{}).Decrypt(Params{Input: ciphertext, PrivateKey: key}); err == nil {
		t.Error("Expected decrypt with a wiped key to fail")
	}
	WipePrivateKey(nil)
}

func TestPrivateKeyDERRoundTrip(t *testing.T) {
	key := loadTestKey(t)
	der, err := PrivateKeyDER(key)
	if err != nil {
		t.Fatalf("PrivateKeyDER failed: %v", err)
	}
	parsed, err := ParsePrivateKeyDER(der)
	if err != nil {
		t.Fatalf("ParsePrivateKeyDER failed: %v", err)
	}
	if !parsed.Equal(key) {
		t.Error("Private key mismatch")
	}
	if _, err := ParsePrivateKeyDER([]byte("junk")); !errors.Is(err, kerrors.ErrInvalidPrivateKey) {
		t.Errorf("Expected ErrInvalidPrivateKey, got %v", err)
	}
}
