package errors

import "errors"

// Input errors indicate the user supplied malformed data or gave up.
var (
	// ErrInvalidInput indicates input did not match the expected format.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAborted indicates the user cancelled a prompt or ran out of attempts.
	ErrAborted = errors.New("aborted")
)

// Connectivity errors indicate the server could not be reached or answered
// with a non-OK transport status.
var (
	// ErrConnectionFailure is the generic transport failure.
	ErrConnectionFailure = errors.New("Connection failure")
)

// Cryptographic errors indicate encryption, decryption or verification failed.
// Their messages are deliberately generic.
var (
	// ErrEncryptFailed indicates encryption failed.
	ErrEncryptFailed = errors.New("encryption failed")

	// ErrDecryptFailed indicates decryption failed.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrIncorrectPassword indicates the password did not unlock the private key.
	ErrIncorrectPassword = errors.New("Incorrect password")

	// ErrInvalidKeyLength indicates a symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrInvalidSignature indicates a request signature did not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Authorization errors indicate missing credentials or insufficient privilege.
var (
	// ErrNoValidLogin indicates no access token is held by the session.
	ErrNoValidLogin = errors.New("No valid login")

	// ErrKeyNotFound indicates a key required by the operation is not loaded.
	ErrKeyNotFound = errors.New("encryption key not loaded")

	// ErrForbidden indicates the server refused the operation for this user.
	ErrForbidden = errors.New("forbidden")
)

// User errors indicate issues with user-related operations.
var (
	// ErrUserNotFound indicates the specified user does not exist.
	ErrUserNotFound = errors.New("No user found")
)

// Dispatch and protocol errors.
var (
	// ErrUnknownCommand indicates no command is registered under the name.
	ErrUnknownCommand = errors.New("CommandManager: unknown command")

	// ErrMalformedResponse indicates the server answered with data we cannot parse.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoRepository indicates no current repository has been selected.
	ErrNoRepository = errors.New("no repository selected")
)

// Bridge errors.
var (
	// ErrPortUnavailable indicates the bridge could not bind its port.
	ErrPortUnavailable = errors.New("port unavailable")
)
