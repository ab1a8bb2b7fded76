package commands

import (
	"context"

	"github.com/PolarWolf314/zkgit/internal/audit"
	"github.com/PolarWolf314/zkgit/internal/reposync"
)

const msgUpToDate = "Repository is up to date"

// checkCmd asks whether the current repository's signature is current.
type checkCmd struct{ env *Env }

func (c checkCmd) Execute(ctx context.Context) string {
	res, err := c.env.Sync.Check(ctx)
	if err != nil {
		return failure(err)
	}
	if res.UpToDate {
		return done(msgUpToDate, "status", "upToDate")
	}
	return done("Repository has remote changes", "repoSignature", res.Signature)
}

// requestCmd downloads the current repository into its archive.
type requestCmd struct{ env *Env }

func (c requestCmd) Execute(ctx context.Context) string {
	e := c.env

	name := e.Repo.Snapshot().Name
	path, err := e.archivePath(name)
	if err != nil {
		return failure(err)
	}

	res, err := e.Sync.Download(ctx, path)
	if err != nil {
		e.audit(audit.Entry{Operation: audit.OpRequest, RepoID: reposync.RepoID(name), Error: err.Error()})
		return failure(err)
	}
	e.audit(audit.Entry{Operation: audit.OpRequest, RepoID: res.RepoID, UpToDate: res.UpToDate})

	if res.UpToDate {
		return done(msgUpToDate, "status", "upToDate")
	}
	return done("Fetched "+name, "repoSignature", res.Signature)
}

// pushCmd encrypts and uploads the current repository's archive.
type pushCmd struct{ env *Env }

func (c pushCmd) Execute(ctx context.Context) string {
	e := c.env

	name := e.Repo.Snapshot().Name
	path, err := e.archivePath(name)
	if err != nil {
		return failure(err)
	}

	res, err := e.Sync.Upload(ctx, path)
	if err != nil {
		e.audit(audit.Entry{Operation: audit.OpPush, RepoID: reposync.RepoID(name), Error: err.Error()})
		return failure(err)
	}
	e.audit(audit.Entry{Operation: audit.OpPush, RepoID: res.RepoID})

	return done("Pushed "+name, "repoSignature", res.Signature)
}
