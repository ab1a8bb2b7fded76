// Package transporttest provides an in-memory Transport for tests.
package transporttest

import (
	"context"
	"io"
	"os"
	"sync"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

// Handler answers one request to an endpoint.
type Handler func(req *signer.Request) (transport.Reply, error)

// Call records a request seen by the fake.
type Call struct {
	Endpoint string
	Request  *signer.Request

	// Upload holds the bytes of the attached file for Upload calls.
	Upload []byte
}

// Fake routes requests to per-endpoint handlers. Endpoints without a
// handler fail with ErrConnectionFailure, as an unreachable server would.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	files    map[string][]byte
	calls    []Call
}

func New() *Fake {
	return &Fake{handlers: make(map[string]Handler), files: make(map[string][]byte)}
}

// Handle registers h for endpoint.
func (f *Fake) Handle(endpoint string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[endpoint] = h
	return f
}

// Reply registers a fixed reply for endpoint.
func (f *Fake) Reply(endpoint string, reply transport.Reply) *Fake {
	return f.Handle(endpoint, func(*signer.Request) (transport.Reply, error) {
		return reply, nil
	})
}

// Serve makes Download on endpoint stream data along with reply.
func (f *Fake) Serve(endpoint string, data []byte, reply transport.Reply) *Fake {
	f.mu.Lock()
	f.files[endpoint] = data
	f.mu.Unlock()
	return f.Reply(endpoint, reply)
}

// Calls returns the requests seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Endpoints returns the endpoint of every call in order.
func (f *Fake) Endpoints() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Endpoint
	}
	return out
}

func (f *Fake) dispatch(ctx context.Context, call Call) (transport.Reply, []byte, error) {
	if ctx.Err() != nil {
		return nil, nil, kerrors.ErrConnectionFailure
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.handlers[call.Endpoint]
	data, hasFile := f.files[call.Endpoint]
	f.mu.Unlock()

	if !ok {
		return nil, nil, kerrors.ErrConnectionFailure
	}
	reply, err := h(call.Request)
	if err != nil {
		return nil, nil, err
	}
	if !hasFile {
		data = nil
	}
	return reply, data, nil
}

func (f *Fake) Post(ctx context.Context, endpoint string, req *signer.Request) (transport.Reply, error) {
	reply, _, err := f.dispatch(ctx, Call{Endpoint: endpoint, Request: req})
	return reply, err
}

func (f *Fake) Upload(ctx context.Context, endpoint string, req *signer.Request, path string) (transport.Reply, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reply, _, err := f.dispatch(ctx, Call{Endpoint: endpoint, Request: req, Upload: data})
	return reply, err
}

func (f *Fake) Download(ctx context.Context, endpoint string, req *signer.Request, dst io.Writer) (transport.Reply, bool, error) {
	reply, data, err := f.dispatch(ctx, Call{Endpoint: endpoint, Request: req})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return reply, false, nil
	}
	if _, err := dst.Write(data); err != nil {
		return nil, false, err
	}
	return reply, true, nil
}

var _ transport.Transport = (*Fake)(nil)
