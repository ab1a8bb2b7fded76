package crypto

import (
	"crypto/rsa"
	"fmt"
)

// Params carries the per-call inputs of a Handler. Each variant reads only
// the fields it documents and ignores the rest.
type Params struct {
	Input      []byte
	Key        []byte
	IV         []byte
	Salt       []byte
	Signature  []byte
	PublicKey  *rsa.PublicKey
	PrivateKey *rsa.PrivateKey

	// Path and OutPath are used by the file variants. OutPath defaults to
	// Path, in which case the file is transformed in place.
	Path    string
	OutPath string
}

// Handler is the uniform interface over every primitive zkgit uses.
//
// Handlers hold no key material between calls; everything arrives in
// Params, so a single value may be shared between goroutines.
type Handler interface {
	Encrypt(p Params) ([]byte, error)
	Decrypt(p Params) ([]byte, error)
}

// Kind names a Handler variant.
type Kind int

const (
	KindAESGCM Kind = iota
	KindAESGCMHex
	KindAESGCMFile
	KindRSAOAEP
	KindRSASignature
	KindPBKDF2
	KindSHA256
	KindSHA256File
)

var handlers = map[Kind]Handler{
	KindAESGCM:       AESGCM{},
	KindAESGCMHex:    AESGCM{Encoding: Hex},
	KindAESGCMFile:   AESGCMFile{},
	KindRSAOAEP:      RSAOAEP{},
	KindRSASignature: RSASignature{},
	KindPBKDF2:       PBKDF2{},
	KindSHA256:       SHA256{},
	KindSHA256File:   SHA256File{},
}

// For returns the handler registered for kind.
func For(kind Kind) Handler {
	h, ok := handlers[kind]
	if !ok {
		panic(fmt.Sprintf("crypto: no handler for kind %d", kind))
	}
	return h
}

// Encoding selects how ciphertext is rendered as text.
type Encoding int

const (
	Base64 Encoding = iota
	Hex
)

// Wipe overwrites b with zero bytes.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
