package session

import "sync"

// Repo is a snapshot of the repository the next sync operation targets.
type Repo struct {
	Name        string
	Signature   string
	EncFileName string
}

// CurrentRepo holds the repository selected by the last bridge trigger or
// sync command. It keeps no history; every Set overwrites it.
type CurrentRepo struct {
	mu   sync.RWMutex
	repo Repo
}

func NewCurrentRepo() *CurrentRepo {
	return &CurrentRepo{}
}

// Set selects a repository. The derived file name is reset because it
// belongs to the previous name.
func (c *CurrentRepo) Set(name, signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repo = Repo{Name: name, Signature: signature}
}

func (c *CurrentRepo) SetSignature(signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repo.Signature = signature
}

func (c *CurrentRepo) SetEncFileName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repo.EncFileName = name
}

func (c *CurrentRepo) Snapshot() Repo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repo
}

func (c *CurrentRepo) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repo = Repo{}
}
