package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// DefaultKeyBits is the RSA modulus size used for new accounts.
const DefaultKeyBits = 4096

// GenerateKeyPair creates a new RSA key pair of the given size.
func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// MarshalPrivateKey encodes the key as Base64 PKCS#8 DER, the format the
// server stores inside encrypted key bundles.
func MarshalPrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer Wipe(der)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(der)))
	base64.StdEncoding.Encode(out, der)
	return out, nil
}

// ParsePrivateKey decodes an RSA private key from PEM (PKCS#1 or PKCS#8) or
// from Base64 PKCS#8 DER.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	var der []byte
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
		if block.Type == "RSA PRIVATE KEY" {
			key, err := x509.ParsePKCS1PrivateKey(der)
			if err != nil {
				return nil, kerrors.ErrInvalidPrivateKey
			}
			return key, nil
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, kerrors.ErrInvalidPrivateKey
		}
		der = decoded
		defer Wipe(decoded)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, kerrors.ErrInvalidPrivateKey
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, kerrors.ErrInvalidPrivateKey
	}
	return key, nil
}

// MarshalPublicKey encodes the key as Base64 PKIX DER.
func MarshalPublicKey(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ParsePublicKey decodes a public key from PEM or Base64 PKIX DER.
func ParsePublicKey(data string) (*rsa.PublicKey, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(data)); block != nil {
		if block.Type != "PUBLIC KEY" {
			return nil, fmt.Errorf("failed to decode PEM block containing public key")
		}
		der = block.Bytes
	} else {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode public key: %w", err)
		}
		der = decoded
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}

// PrivateKeyDER encodes the key as raw PKCS#8 DER. The caller owns the
// result and should wipe it.
func PrivateKeyDER(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return der, nil
}

// ParsePrivateKeyDER decodes raw PKCS#8 DER produced by PrivateKeyDER.
func ParsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, kerrors.ErrInvalidPrivateKey
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, kerrors.ErrInvalidPrivateKey
	}
	return key, nil
}

// WipePrivateKey zeroes the private components of key and drops its
// precomputed state, so any later sign or decrypt with key fails.
func WipePrivateKey(key *rsa.PrivateKey) {
	if key == nil {
		return
	}
	wipeInt(key.D)
	for _, p := range key.Primes {
		wipeInt(p)
	}
	wipeInt(key.Precomputed.Dp)
	wipeInt(key.Precomputed.Dq)
	wipeInt(key.Precomputed.Qinv)
	key.Precomputed = rsa.PrecomputedValues{}
	key.Primes = nil
	key.PublicKey = rsa.PublicKey{}
}

// wipeInt zeroes the words backing n. Bits shares its array with n.
func wipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}
