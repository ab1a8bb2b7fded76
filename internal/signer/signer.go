package signer

import (
	"crypto/rsa"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/session"
)

// Reserved field names appended by Sign.
const (
	FieldTimestamp = "timestamp"
	FieldHash      = "hash"
	FieldSignature = "signature"
)

// Field is one key=value pair of a request, in canonical order.
type Field struct {
	Key   string
	Value string
}

// F is shorthand for building a Field.
func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Request is a signed, ordered field set ready for the transport.
type Request struct {
	fields    []Field
	canonical string
	hash      string
	signature string
}

// Fields returns the application fields, the timestamp, the hash and, when
// present, the signature, in the order they must be sent.
func (r *Request) Fields() []Field {
	out := make([]Field, 0, len(r.fields)+2)
	out = append(out, r.fields...)
	out = append(out, F(FieldHash, r.hash))
	if r.signature != "" {
		out = append(out, F(FieldSignature, r.signature))
	}
	return out
}

// Canonical returns the string the hash was computed over.
func (r *Request) Canonical() string { return r.canonical }

func (r *Request) Hash() string { return r.hash }

func (r *Request) Signature() string { return r.signature }

func (r *Request) Signed() bool { return r.signature != "" }

// Get returns the value of an application field.
func (r *Request) Get(key string) (string, bool) {
	for _, f := range r.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Signer builds authenticated requests from the session's private key.
type Signer struct {
	sess *session.Session
	now  func() time.Time
}

// New returns a Signer reading keys from sess.
func New(sess *session.Session) *Signer {
	return &Signer{sess: sess, now: time.Now}
}

// WithClock replaces the timestamp source.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign appends a timestamp and the SHA-256 hash of the canonical string to
// fields. When the session holds a private key, the hash is also signed with
// RSA-SHA512. Without a key the request goes out unsigned, which is what
// the pre-authentication login steps need.
func (s *Signer) Sign(fields ...Field) (*Request, error) {
	for _, f := range fields {
		switch f.Key {
		case FieldTimestamp, FieldHash, FieldSignature:
			return nil, fmt.Errorf("field %q is reserved", f.Key)
		}
	}

	all := make([]Field, 0, len(fields)+1)
	all = append(all, fields...)
	all = append(all, F(FieldTimestamp, strconv.FormatInt(s.now().UnixMilli(), 10)))

	req := &Request{fields: all}
	req.canonical = Canonicalize(all)
	req.hash = crypto.HashString(req.canonical)

	if s.sess.HasPrivateKey() {
		err := s.sess.WithPrivateKey(func(key *rsa.PrivateKey) error {
			sig, err := crypto.For(crypto.KindRSASignature).Encrypt(crypto.Params{
				Input:      []byte(req.hash),
				PrivateKey: key,
			})
			if err != nil {
				return err
			}
			req.signature = string(sig)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to sign request: %w", err)
		}
	}

	return req, nil
}

// Authenticated signs fields prefixed with the account identity and the
// access token. It fails with ErrNoValidLogin while no token is held.
func (s *Signer) Authenticated(fields ...Field) (*Request, error) {
	if !s.sess.HasAccessToken() {
		return nil, kerrors.ErrNoValidLogin
	}
	all := make([]Field, 0, len(fields)+3)
	all = append(all,
		F("accountNumber", s.sess.AccountNumber()),
		F("username", s.sess.Username()),
		F("accessToken", s.sess.AccessToken()),
	)
	all = append(all, fields...)
	return s.Sign(all...)
}

// Canonicalize joins fields as key=value pairs separated by '&'.
func Canonicalize(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// Verify performs the server's side of the contract on a received field
// list: recompute the hash over every field before "hash", compare it, and
// check the signature against pub when one is present.
func Verify(fields []Field, pub *rsa.PublicKey) error {
	var (
		body      []Field
		hash, sig string
		seenHash  bool
	)
	for _, f := range fields {
		switch {
		case f.Key == FieldHash:
			hash, seenHash = f.Value, true
		case f.Key == FieldSignature:
			sig = f.Value
		case !seenHash:
			body = append(body, f)
		}
	}
	if !seenHash {
		return fmt.Errorf("request has no hash")
	}
	if crypto.HashString(Canonicalize(body)) != hash {
		return fmt.Errorf("hash mismatch")
	}
	if sig == "" {
		return nil
	}
	if pub == nil {
		return fmt.Errorf("signed request but no public key to verify")
	}
	_, err := crypto.For(crypto.KindRSASignature).Decrypt(crypto.Params{
		Input:     []byte(hash),
		Signature: []byte(sig),
		PublicKey: pub,
	})
	return err
}
