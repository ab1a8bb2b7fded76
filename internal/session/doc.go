// Package session holds the in-memory credential state of a logged-in user
// and the repository currently being synchronised.
//
// Key material never leaves memory. Password, salt, IV, derived key, access
// token and AES key live in Secret buffers that are zeroed when replaced,
// when consumed (password and derived key) and by ClearUserData, which runs
// on logout and on exit.
package session
