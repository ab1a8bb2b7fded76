package session

import (
	"crypto/rsa"
	"sync"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// AccessTokenLength is the length of every valid decrypted access token.
const AccessTokenLength = 64

// Session is the credential and key store of a logged-in user.
//
// A Session is created once per process and shared by pointer between the
// interactive shell, the bridge and every command. All methods are safe for
// concurrent use. Getters for key material return copies the caller should
// wipe with crypto.Wipe when done.
type Session struct {
	mu sync.RWMutex

	accountNumber string
	username      string
	userToModify  string

	password   *Secret
	salt       *Secret
	iv         *Secret
	pbkdf2Hash *Secret

	// privateKey holds PKCS#8 DER. It is parsed per use so no long-lived
	// *rsa.PrivateKey escapes the wipeable buffer.
	privateKey *Secret

	accessToken    *Secret
	encAccessToken string
	encPrivateKey  string
	encAESKey      string

	aesKey *Secret
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

func (s *Session) AccountNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountNumber
}

func (s *Session) SetAccountNumber(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountNumber = v
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) SetUsername(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = v
}

func (s *Session) UserToModify() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userToModify
}

func (s *Session) SetUserToModify(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userToModify = v
}

// SetPassword takes ownership of pw, replacing and wiping any previous one.
func (s *Session) SetPassword(pw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password.Wipe()
	s.password = NewSecret(pw)
}

// ConsumePassword calls fn with the stored password and wipes the password
// afterwards, whatever fn returns.
func (s *Session) ConsumePassword(fn func(pw []byte) error) error {
	s.mu.Lock()
	pw := s.password
	s.password = nil
	s.mu.Unlock()

	defer pw.Wipe()
	return fn(pw.Bytes())
}

func (s *Session) HasPassword() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.password.Empty()
}

func (s *Session) Salt() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salt.Clone()
}

// SetSalt stores a private copy of v.
func (s *Session) SetSalt(v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salt.Wipe()
	s.salt = CopySecret(v)
}

func (s *Session) IV() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iv.Clone()
}

// SetIV stores a private copy of v.
func (s *Session) SetIV(v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iv.Wipe()
	s.iv = CopySecret(v)
}

// SetPBKDF2Hash takes ownership of the derived key.
func (s *Session) SetPBKDF2Hash(v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pbkdf2Hash.Wipe()
	s.pbkdf2Hash = NewSecret(v)
}

// ConsumePBKDF2Hash calls fn with the derived key and wipes it afterwards.
func (s *Session) ConsumePBKDF2Hash(fn func(key []byte) error) error {
	s.mu.Lock()
	h := s.pbkdf2Hash
	s.pbkdf2Hash = nil
	s.mu.Unlock()

	defer h.Wipe()
	return fn(h.Bytes())
}

func (s *Session) HasPBKDF2Hash() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.pbkdf2Hash.Empty()
}

// SetPrivateKey stores key in encoded form, wiping any previous one. The
// caller keeps ownership of key and should wipe it.
func (s *Session) SetPrivateKey(key *rsa.PrivateKey) error {
	der, err := crypto.PrivateKeyDER(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey.Wipe()
	s.privateKey = NewSecret(der)
	return nil
}

// WithPrivateKey calls fn with a freshly decoded private key and wipes that
// key when fn returns. It fails with ErrKeyNotFound while no key is held.
func (s *Session) WithPrivateKey(fn func(key *rsa.PrivateKey) error) error {
	s.mu.RLock()
	der := s.privateKey.Clone()
	s.mu.RUnlock()
	if der == nil {
		return kerrors.ErrKeyNotFound
	}
	defer crypto.Wipe(der)

	key, err := crypto.ParsePrivateKeyDER(der)
	if err != nil {
		return err
	}
	defer crypto.WipePrivateKey(key)
	return fn(key)
}

func (s *Session) HasPrivateKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.privateKey.Empty()
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return string(s.accessToken.Bytes())
}

func (s *Session) SetAccessToken(v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken.Wipe()
	s.accessToken = CopySecret(v)
}

// ClearAccessToken drops a token the server no longer accepts.
func (s *Session) ClearAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken.Wipe()
	s.accessToken = nil
}

func (s *Session) HasAccessToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.accessToken.Empty()
}

func (s *Session) EncAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encAccessToken
}

func (s *Session) SetEncAccessToken(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encAccessToken = v
}

func (s *Session) EncPrivateKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encPrivateKey
}

func (s *Session) SetEncPrivateKey(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encPrivateKey = v
}

func (s *Session) EncAESKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encAESKey
}

func (s *Session) SetEncAESKey(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encAESKey = v
}

func (s *Session) AESKey() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aesKey.Clone()
}

// SetAESKey takes ownership of key.
func (s *Session) SetAESKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aesKey.Wipe()
	s.aesKey = NewSecret(key)
}

func (s *Session) HasAESKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.aesKey.Empty()
}

// ClearUserData wipes every sensitive field and forgets the identity.
// It is safe to call repeatedly.
func (s *Session) ClearUserData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, secret := range []*Secret{s.password, s.salt, s.iv, s.pbkdf2Hash, s.privateKey, s.accessToken, s.aesKey} {
		secret.Wipe()
	}
	s.password, s.salt, s.iv, s.pbkdf2Hash, s.privateKey, s.accessToken, s.aesKey = nil, nil, nil, nil, nil, nil, nil

	s.encAccessToken = ""
	s.encPrivateKey = ""
	s.encAESKey = ""
	s.accountNumber = ""
	s.username = ""
	s.userToModify = ""
}
