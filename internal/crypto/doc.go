// Package crypto provides the cryptographic primitives behind zkgit's
// zero-knowledge model.
//
// Every primitive is exposed through the Handler interface so callers can
// pick a variant by Kind and drive it with a Params value:
//
//	out, err := crypto.For(crypto.KindRSAOAEP).Decrypt(crypto.Params{
//	    Input:      encAccessToken,
//	    PrivateKey: key,
//	})
//
// # Key Hierarchy
//
//  1. The password is stretched with PBKDF2-HMAC-SHA512 (100,000 rounds)
//     over a server-held salt into a 256-bit key.
//  2. That key opens the AES-GCM wrapped RSA private key.
//  3. The private key unwraps (RSA-OAEP, SHA-512) the access token and the
//     session AES key.
//  4. The session AES key encrypts repository archives and derives the
//     content-addressed file names the server stores them under.
//
// # Outputs
//
// Handlers return []byte so callers can wipe sensitive results with Wipe.
// Encrypting variants return text (Base64, URL-safe Base64 or hex as
// documented per type); decrypting variants return raw plaintext.
//
// Cryptographic failures surface as the generic errors from
// internal/errors; underlying library errors are never passed through.
package crypto
