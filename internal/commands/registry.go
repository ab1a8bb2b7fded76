package commands

import (
	"context"
	"sort"
	"sync"
)

// Registered command names.
const (
	NameLogin        = "LOGIN"
	NameTOTP         = "TOTP"
	NameUnlockKey    = "UNLOCK_KEY"
	NameGetAESKey    = "GET_AES_KEY"
	NameUnlockAESKey = "UNLOCK_AES_KEY"
	NameStatus       = "STATUS"
	NameLogout       = "LOGOUT"
	NameExit         = "EXIT"
	NameNewUser      = "NEW_USER"
	NameShareKey     = "SHARE_KEY"
	NameDeleteUser   = "DELETE_USER"
	NameCheck        = "CHECK"
	NameRequest      = "REQUEST"
	NamePush         = "PUSH"
)

// ExitSentinel is returned by a command to end the session. The dispatcher
// answers it with the last response unchanged.
const ExitSentinel = "EXIT"

// Command is one named step of the client. Execute never panics and
// reports every failure inside the returned wire string.
type Command interface {
	Execute(ctx context.Context) string
}

// CommandFunc adapts a function to Command.
type CommandFunc func(ctx context.Context) string

func (f CommandFunc) Execute(ctx context.Context) string { return f(ctx) }

// Registry maps command names to commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd under name, replacing any previous entry.
func (r *Registry) Register(name string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = cmd
}

func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
