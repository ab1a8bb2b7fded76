package session

import "github.com/PolarWolf314/zkgit/internal/crypto"

// Secret owns a sensitive byte buffer and zeroes it on Wipe.
//
// A nil *Secret behaves like an empty, already wiped secret.
type Secret struct {
	b []byte
}

// NewSecret takes ownership of b. The caller must not keep using b.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// CopySecret returns a Secret holding a private copy of b.
func CopySecret(b []byte) *Secret {
	c := make([]byte, len(b))
	copy(c, b)
	return &Secret{b: c}
}

// Bytes returns the underlying buffer. It is invalidated by Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Clone returns an independent copy the caller must wipe.
func (s *Secret) Clone() []byte {
	if s == nil || s.b == nil {
		return nil
	}
	c := make([]byte, len(s.b))
	copy(c, s.b)
	return c
}

func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

func (s *Secret) Empty() bool {
	return s.Len() == 0
}

// Wipe overwrites the buffer with zero bytes and releases it.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	crypto.Wipe(s.b)
	s.b = nil
}
