// Package bridge exposes the running session to local tooling.
//
// The server listens on 127.0.0.1 only. A client writes a single line
//
//	COMMAND [repoName] [repoSignature]
//
// and receives a single line back: SUCCESS when the command chain ended
// without error, otherwise the error message. The connection is then
// closed. A repository name on the line becomes the current repository
// before the command runs.
//
// Send is the matching client, used by `zkgit hook`.
package bridge
