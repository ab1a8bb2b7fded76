package prompt

import (
	"context"
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

func TestAskAcceptsValidAnswer(t *testing.T) {
	s := NewScript("1234567890123456789012345")
	got, err := Ask(context.Background(), s, AccountNumber, Attempts)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got != "1234567890123456789012345" {
		t.Errorf("Unexpected answer %q", got)
	}
}

func TestAskRetriesThenSucceeds(t *testing.T) {
	s := NewScript("al1ce", "alice")
	got, err := Ask(context.Background(), s, Username, Attempts)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got != "alice" {
		t.Errorf("Unexpected answer %q", got)
	}
	if len(s.Notices) != 1 {
		t.Errorf("Expected one hint, got %v", s.Notices)
	}
}

func TestAskGivesUpAfterAttempts(t *testing.T) {
	s := NewScript("1", "2", "3", "042539")
	_, err := Ask(context.Background(), s, TOTP, Attempts)
	if !errors.Is(err, kerrors.ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
	if s.Remaining() != 1 {
		t.Errorf("Expected the fourth answer to stay unread, %d left", s.Remaining())
	}
}

func TestAskEmptyInputAborts(t *testing.T) {
	s := NewScript("")
	_, err := Ask(context.Background(), s, Username, Attempts)
	if !errors.Is(err, kerrors.ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
}

func TestAskCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Ask(ctx, NewScript("alice"), Username, Attempts)
	if !errors.Is(err, kerrors.ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
}

func TestAskSecretWipesRejected(t *testing.T) {
	s := NewScript("short", "Correct-Horse-42")
	got, err := AskSecret(context.Background(), s, Password, Attempts)
	if err != nil {
		t.Fatalf("AskSecret failed: %v", err)
	}
	if string(got) != "Correct-Horse-42" {
		t.Errorf("Unexpected secret %q", got)
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"Correct-Horse-42", true},
		{"abcdefghijk1!", true},
		{"short1!", false},
		{"nodigitsatall!!", false},
		{"nospecial12345", false},
		{"123456789012!", false},
		{"has space 123!", false},
		{"this-password-is-way-too-long-1", false},
		{"Größe-Übung-Öl-Äpfel-Maß-42!", true},
		{"ÄÖÜäöü1!", false},
	}
	for _, tt := range tests {
		if got := ValidPassword([]byte(tt.pw)); got != tt.want {
			t.Errorf("ValidPassword(%q) = %v, want %v", tt.pw, got, tt.want)
		}
	}
}
