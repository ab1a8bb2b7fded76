package errors

import "errors"

// Kind tags an error with the category the dispatcher reasons about.
type Kind string

const (
	KindNone       Kind = ""
	KindInput      Kind = "input"
	KindConnection Kind = "connection"
	KindCrypto     Kind = "crypto"
	KindAuth       Kind = "auth"
	KindNoLogin    Kind = "noLogin"
	KindNoUser     Kind = "noUser"
	KindDispatch   Kind = "dispatch"
	KindProtocol   Kind = "protocol"
	KindBridge     Kind = "bridge"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInput},
	{ErrAborted, KindInput},
	{ErrConnectionFailure, KindConnection},
	{ErrEncryptFailed, KindCrypto},
	{ErrDecryptFailed, KindCrypto},
	{ErrIncorrectPassword, KindCrypto},
	{ErrInvalidKeyLength, KindCrypto},
	{ErrInvalidPrivateKey, KindCrypto},
	{ErrInvalidSignature, KindCrypto},
	{ErrNoValidLogin, KindNoLogin},
	{ErrKeyNotFound, KindAuth},
	{ErrForbidden, KindAuth},
	{ErrUserNotFound, KindNoUser},
	{ErrUnknownCommand, KindDispatch},
	{ErrMalformedResponse, KindProtocol},
	{ErrNoRepository, KindInput},
	{ErrPortUnavailable, KindBridge},
}

// KindOf returns the category of err, or KindNone when err wraps none of the
// sentinel errors in this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindNone
}

// Soft reports whether errors of this kind let a chained command still run.
func (k Kind) Soft() bool {
	switch k {
	case KindNoUser, KindDispatch, KindNoLogin:
		return true
	}
	return false
}

// Is and New re-export the standard helpers so callers importing this
// package under its default name keep access to them.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
