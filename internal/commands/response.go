package commands

import (
	"regexp"
	"strings"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// Control keys of a response.
const (
	KeyCommand = "COMMAND"
	KeyError   = "ERROR"
	KeyKind    = "KIND"
	KeyMessage = "MESSAGE"
)

var entryPattern = regexp.MustCompile(`^\s*(\w+)\s*=\s*(.*)\s*$`)

// Response is the ordered key/value map a command produces.
type Response struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. A key keeps the position it was first set at.
func (r *Response) Set(key, value string) *Response {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

func (r Response) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value under key, or "" when it is absent.
func (r Response) Value(key string) string {
	return r.values[key]
}

func (r Response) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Response) Len() int { return len(r.keys) }

// String renders the response in wire form, {k=v, k=v}.
func (r Response) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// ParseResponse decodes a wire string. Surrounding braces are optional.
// Entries that are not key=value pairs are dropped and later duplicates
// overwrite earlier values.
func ParseResponse(raw string) Response {
	var r Response
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if strings.TrimSpace(raw) == "" {
		return r
	}

	for _, entry := range strings.Split(raw, ",") {
		m := entryPattern.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		r.Set(m[1], strings.TrimSpace(m[2]))
	}
	return r
}

// Outcome is the typed reading of a response's control keys.
type Outcome struct {
	Success bool
	Failed  bool

	// Message is the error text on failure, or the MESSAGE text otherwise.
	Message string
	Kind    kerrors.Kind

	// Next is the command to run after this one, if any.
	Next string
}

// Outcome decodes the control keys of r. A failed response may still name
// a next command, which runs when the failure is soft.
func (r Response) Outcome() Outcome {
	var o Outcome
	o.Next = r.Value(KeyCommand)
	if msg, ok := r.Get(KeyError); ok {
		o.Failed = true
		o.Message = msg
		o.Kind = kerrors.Kind(r.Value(KeyKind))
		return o
	}
	_, o.Success = r.Get(KeyCommand)
	o.Message = r.Value(KeyMessage)
	return o
}

// softMarkers identify soft failures in responses that carry no KIND.
var softMarkers = []string{"No user", "CommandManager", "No valid login"}

// Soft reports whether a failed chain may continue to its next command.
func (o Outcome) Soft() bool {
	if !o.Failed {
		return false
	}
	if o.Kind != kerrors.KindNone {
		return o.Kind.Soft()
	}
	for _, m := range softMarkers {
		if strings.Contains(o.Message, m) {
			return true
		}
	}
	return false
}

// ConnectionFailure reports whether the outcome is a failure to reach the
// server.
func (o Outcome) ConnectionFailure() bool {
	if !o.Failed {
		return false
	}
	return o.Kind == kerrors.KindConnection || o.Message == kerrors.ErrConnectionFailure.Error()
}

// success builds a successful response chaining to next. next may be empty.
// kv holds alternating keys and values.
func success(next string, kv ...string) string {
	var r Response
	r.Set(KeyCommand, next)
	setPairs(&r, kv)
	return r.String()
}

// done builds a successful response that ends the chain with message.
func done(message string, kv ...string) string {
	var r Response
	r.Set(KeyCommand, "")
	if message != "" {
		r.Set(KeyMessage, sanitize(message))
	}
	setPairs(&r, kv)
	return r.String()
}

// failure builds an error response from err. Kinds that steer the
// dispatcher are tagged; others carry the message alone.
func failure(err error) string {
	var r Response
	r.Set(KeyError, sanitize(publicMessage(err)))
	if kind := kerrors.KindOf(err); tagged(kind) {
		r.Set(KeyKind, string(kind))
	}
	return r.String()
}

func tagged(kind kerrors.Kind) bool {
	return kind.Soft() || kind == kerrors.KindConnection
}

// failureWith builds an error response with an explicit message and kind.
func failureWith(message string, kind kerrors.Kind) string {
	var r Response
	r.Set(KeyError, sanitize(message))
	if tagged(kind) {
		r.Set(KeyKind, string(kind))
	}
	return r.String()
}

func setPairs(r *Response, kv []string) {
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], sanitize(kv[i+1]))
	}
}

// publicMessages lists the errors whose sentinel text replaces any wrapped
// detail in a response.
var publicMessages = []error{
	kerrors.ErrConnectionFailure,
	kerrors.ErrIncorrectPassword,
	kerrors.ErrDecryptFailed,
	kerrors.ErrEncryptFailed,
	kerrors.ErrInvalidKeyLength,
	kerrors.ErrInvalidPrivateKey,
	kerrors.ErrInvalidSignature,
	kerrors.ErrNoValidLogin,
	kerrors.ErrKeyNotFound,
}

func publicMessage(err error) string {
	for _, sentinel := range publicMessages {
		if kerrors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// sanitize keeps values inside one wire entry.
func sanitize(v string) string {
	v = strings.ReplaceAll(v, ",", ";")
	v = strings.ReplaceAll(v, "{", "(")
	v = strings.ReplaceAll(v, "}", ")")
	return strings.TrimSpace(v)
}
