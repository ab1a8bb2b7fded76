package audit

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Operation names recorded in the trail.
const (
	OpLogin      = "login"
	OpLogout     = "logout"
	OpPush       = "push"
	OpRequest    = "request"
	OpCreateUser = "create_user"
	OpDeleteUser = "delete_user"
	OpShareKey   = "share_key"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Username of the logged in account.
	ClientID  string `json:"client_id,omitempty"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	RepoID     string `json:"repo_id,omitempty"`     // For push/request.
	UpToDate   bool   `json:"up_to_date,omitempty"`  // For push/request.
	TargetUser string `json:"target_user,omitempty"` // For user administration.
	Error      string `json:"error,omitempty"`       // Set when the operation failed.
}

// Trail appends entries to a JSON Lines file. A nil Trail or one with an
// empty Path records nothing.
type Trail struct {
	Path     string
	ClientID string

	mu sync.Mutex
}

// New returns a trail writing to path.
func New(path, clientID string) *Trail {
	return &Trail{Path: path, ClientID: clientID}
}

// Log appends an entry to the audit log.
// If logging fails, it does not return an error.
// Operations should not fail just because audit logging failed.
func (t *Trail) Log(entry Entry) {
	if t == nil || t.Path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.ClientID == "" {
		entry.ClientID = t.ClientID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func (t *Trail) ReadEntries() ([]Entry, error) {
	if t == nil || t.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(t.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
