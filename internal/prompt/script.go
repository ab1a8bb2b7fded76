package prompt

import (
	"context"
	"sync"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// Script answers prompts from a fixed list, for tests and piped sessions.
// Running out of answers behaves like an interrupt.
type Script struct {
	mu      sync.Mutex
	answers []string
	Labels  []string
	Notices []string
}

// NewScript returns a prompter that replies with answers in order.
func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

func (s *Script) next(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Labels = append(s.Labels, label)
	if len(s.answers) == 0 {
		return "", kerrors.ErrAborted
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *Script) ReadLine(ctx context.Context, label string) (string, error) {
	if ctx.Err() != nil {
		return "", kerrors.ErrAborted
	}
	return s.next(label)
}

func (s *Script) ReadSecret(ctx context.Context, label string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, kerrors.ErrAborted
	}
	a, err := s.next(label)
	if err != nil {
		return nil, err
	}
	return []byte(a), nil
}

func (s *Script) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notices = append(s.Notices, msg)
}

// Remaining reports how many answers have not been consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
