// Package signer builds the authenticated request payloads sent to the
// server.
//
// A request is an ordered list of application fields followed by a
// millisecond timestamp. The fields are joined as key=value pairs with '&';
// the SHA-256 hex of that string is appended as "hash" and, once the private
// key is unlocked, an RSA-SHA512 signature of the hash as "signature"
// (URL-safe Base64). The server recomputes the hash in the same order.
package signer
