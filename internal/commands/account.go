package commands

import (
	"context"

	"github.com/PolarWolf314/zkgit/internal/audit"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

// statusCmd asks the server whether the session's login is still valid.
type statusCmd struct{ env *Env }

func (c statusCmd) Execute(ctx context.Context) string {
	e := c.env

	if !e.Session.HasAccessToken() {
		return failure(kerrors.ErrNoValidLogin)
	}
	req, err := e.Signer.Authenticated()
	if err != nil {
		return failure(err)
	}
	reply, err := e.Transport.Post(ctx, transport.EndpointStatus, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}

	return done("Logged in as "+e.Session.Username(), "username", e.Session.Username())
}

// logoutCmd ends the session on the server and wipes it locally. Local
// state is cleared even when the server cannot be told.
type logoutCmd struct{ env *Env }

func (c logoutCmd) Execute(ctx context.Context) string {
	e := c.env
	defer e.Repo.Clear()
	defer e.Session.ClearUserData()

	if !e.Session.HasAccessToken() {
		return done("Logged out")
	}

	req, err := e.Signer.Authenticated()
	if err != nil {
		return failure(err)
	}
	e.audit(audit.Entry{Operation: audit.OpLogout})

	reply, err := e.Transport.Post(ctx, transport.EndpointLogout, req)
	if err != nil {
		return failure(err)
	}
	if err := reply.Err(); err != nil {
		return failure(err)
	}
	return done("Logged out")
}
