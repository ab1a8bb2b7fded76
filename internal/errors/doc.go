// Package errors provides typed error values for zkgit.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. Each
// sentinel also maps to a Kind, which is what the command dispatcher uses to
// decide whether a failed step still allows a chained command to run.
//
// # Error Categories
//
//   - Input errors: malformed prompts or aborts (ErrInvalidInput, ErrAborted)
//   - Connectivity errors: transport failures (ErrConnectionFailure)
//   - Crypto errors: generic decrypt/verify failures (ErrDecryptFailed, ErrIncorrectPassword)
//   - Authorization errors: missing token or keys (ErrNoValidLogin, ErrKeyNotFound)
//   - User errors: unknown users (ErrUserNotFound)
//   - Dispatch and protocol errors (ErrUnknownCommand, ErrMalformedResponse)
//
// # Usage
//
//	if !sess.HasAccessToken() {
//	    return nil, errors.ErrNoValidLogin
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("fetching aes key for %s: %w", username, errors.ErrConnectionFailure)
//
// The sentinel messages of ErrConnectionFailure, ErrNoValidLogin,
// ErrUserNotFound and ErrUnknownCommand are part of the response protocol
// and must not be reworded.
package errors
