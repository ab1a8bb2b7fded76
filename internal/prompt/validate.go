package prompt

import (
	"context"
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// Attempts is how often a malformed answer is re-prompted before giving up.
const Attempts = 3

// Rule describes one validated prompt.
type Rule struct {
	Label string
	Hint  string
	Valid func([]byte) bool
}

func pattern(expr string) func([]byte) bool {
	re := regexp.MustCompile(expr)
	return re.Match
}

var (
	AccountNumber = Rule{
		Label: "Account number: ",
		Hint:  "The account number is 25 digits.",
		Valid: pattern(`^\d{25}$`),
	}

	Username = Rule{
		Label: "Username: ",
		Hint:  "Usernames are 1 to 50 letters.",
		Valid: pattern(`^[A-Za-z]{1,50}$`),
	}

	TOTP = Rule{
		Label: "Authenticator code: ",
		Hint:  "The code is 6 digits.",
		Valid: pattern(`^\d{6}$`),
	}

	Password = Rule{
		Label: "Password: ",
		Hint:  "Passwords are 12 to 30 characters with at least one letter, one digit and one special character.",
		Valid: ValidPassword,
	}
)

// ValidPassword applies the account password policy. Length counts
// characters, not bytes.
func ValidPassword(pw []byte) bool {
	if n := utf8.RuneCount(pw); n < 12 || n > 30 {
		return false
	}
	var letter, digit, special bool
	for _, c := range string(pw) {
		switch {
		case unicode.IsLetter(c):
			letter = true
		case unicode.IsDigit(c):
			digit = true
		case unicode.IsSpace(c):
			return false
		case unicode.IsPrint(c):
			special = true
		}
	}
	return letter && digit && special
}

// Ask reads a line matching rule, re-prompting up to attempts times. Empty
// input, an interrupt or exhausting the attempts returns ErrAborted.
func Ask(ctx context.Context, p Prompter, rule Rule, attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		line, err := p.ReadLine(ctx, rule.Label)
		if err != nil {
			return "", err
		}
		if line == "" {
			return "", kerrors.ErrAborted
		}
		if rule.Valid([]byte(line)) {
			return line, nil
		}
		p.Notify(rule.Hint)
	}
	return "", fmt.Errorf("%w: %s", kerrors.ErrAborted, rule.Hint)
}

// AskSecret is Ask for hidden input. Rejected answers are wiped.
func AskSecret(ctx context.Context, p Prompter, rule Rule, attempts int) ([]byte, error) {
	for i := 0; i < attempts; i++ {
		secret, err := p.ReadSecret(ctx, rule.Label)
		if err != nil {
			return nil, err
		}
		if len(secret) == 0 {
			return nil, kerrors.ErrAborted
		}
		if rule.Valid(secret) {
			return secret, nil
		}
		crypto.Wipe(secret)
		p.Notify(rule.Hint)
	}
	return nil, fmt.Errorf("%w: %s", kerrors.ErrAborted, rule.Hint)
}
