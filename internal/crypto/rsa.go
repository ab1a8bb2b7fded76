package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// RSAOAEP wraps Input for PublicKey and unwraps it with PrivateKey using
// OAEP with SHA-512 as both the digest and the MGF1 hash.
//
// Encrypt returns standard Base64; Decrypt expects Base64 and returns the
// raw plaintext.
type RSAOAEP struct{}

func (RSAOAEP) Encrypt(p Params) ([]byte, error) {
	if p.PublicKey == nil {
		return nil, fmt.Errorf("%w: public key", kerrors.ErrKeyNotFound)
	}
	ciphertext, err := rsa.EncryptOAEP(sha512.New(), rand.Reader, p.PublicKey, p.Input, nil)
	if err != nil {
		return nil, kerrors.ErrEncryptFailed
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(ciphertext)))
	base64.StdEncoding.Encode(out, ciphertext)
	return out, nil
}

func (RSAOAEP) Decrypt(p Params) ([]byte, error) {
	if p.PrivateKey == nil {
		return nil, fmt.Errorf("%w: private key", kerrors.ErrKeyNotFound)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(string(p.Input))
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	plaintext, err := rsa.DecryptOAEP(sha512.New(), rand.Reader, p.PrivateKey, ciphertext, nil)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}
	return plaintext, nil
}

// RSASignature signs SHA-512(Input) with PKCS#1 v1.5.
//
// Encrypt signs with PrivateKey and returns URL-safe Base64. Decrypt verifies
// Signature (URL-safe Base64) over Input with PublicKey and returns Input on
// success.
type RSASignature struct{}

func (RSASignature) Encrypt(p Params) ([]byte, error) {
	if p.PrivateKey == nil {
		return nil, fmt.Errorf("%w: signing key", kerrors.ErrKeyNotFound)
	}
	digest := sha512.Sum512(p.Input)
	sig, err := rsa.SignPKCS1v15(rand.Reader, p.PrivateKey, stdcrypto.SHA512, digest[:])
	if err != nil {
		return nil, kerrors.ErrEncryptFailed
	}
	out := make([]byte, base64.URLEncoding.EncodedLen(len(sig)))
	base64.URLEncoding.Encode(out, sig)
	return out, nil
}

func (RSASignature) Decrypt(p Params) ([]byte, error) {
	if p.PublicKey == nil {
		return nil, fmt.Errorf("%w: verification key", kerrors.ErrKeyNotFound)
	}
	sig, err := base64.URLEncoding.DecodeString(string(p.Signature))
	if err != nil {
		return nil, kerrors.ErrInvalidSignature
	}
	digest := sha512.Sum512(p.Input)
	if err := rsa.VerifyPKCS1v15(p.PublicKey, stdcrypto.SHA512, digest[:], sig); err != nil {
		return nil, kerrors.ErrInvalidSignature
	}
	return p.Input, nil
}
