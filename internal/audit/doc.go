// Package audit records a local trail of account operations.
//
// Logins, logouts, pushes, requests and user administration are appended
// to a JSON Lines file in the zkgit data directory:
//
//	$XDG_DATA_HOME/zkgit/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Username and client ID
//   - Operation name
//   - Operation-specific details (repository ID, target user, error)
//
// Repository names never appear in the trail, only their IDs.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
