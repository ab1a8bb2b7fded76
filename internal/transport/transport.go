package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	"github.com/PolarWolf314/zkgit/internal/signer"
)

// Server endpoints.
const (
	EndpointLogin        = "login"
	EndpointValidateTOTP = "validateTotp"
	EndpointGetAESKey    = "getAesKey"
	EndpointStatus       = "status"
	EndpointLogout       = "logout"
	EndpointCheckRepo    = "checkRepo"
	EndpointUpload       = "upload"
	EndpointDownload     = "download"
	EndpointCreateUser   = "createUser"
	EndpointShareKey     = "shareKey"
	EndpointDeleteUser   = "deleteUser"
)

// Reply status values.
const (
	StatusOK       = "ok"
	StatusUpToDate = "upToDate"
)

// Reply is the flat payload of a server answer.
type Reply map[string]string

func (r Reply) Get(key string) string { return r[key] }

func (r Reply) Status() string { return r["status"] }

func (r Reply) UpToDate() bool { return r["status"] == StatusUpToDate }

// Err converts an application-level error reported by the server into an
// error. Messages naming a missing user, a missing login or a rejected access
// token map to the matching sentinel so they keep their category.
func (r Reply) Err() error {
	msg, ok := r["error"]
	if !ok || msg == "" {
		return nil
	}
	switch {
	case strings.Contains(msg, "No user"):
		return fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, msg)
	case strings.Contains(msg, "No valid login"), strings.Contains(strings.ToLower(msg), "access token"):
		return fmt.Errorf("%w: %s", kerrors.ErrNoValidLogin, msg)
	case strings.Contains(msg, "forbidden"), strings.Contains(msg, "not allowed"):
		return fmt.Errorf("%w: %s", kerrors.ErrForbidden, msg)
	}
	return errors.New(msg)
}

// Transport carries signed requests to the server. Every failure to reach
// the server or a non-OK status is reported as ErrConnectionFailure.
type Transport interface {
	// Post sends req to endpoint and returns the decoded reply.
	Post(ctx context.Context, endpoint string, req *signer.Request) (Reply, error)

	// Upload sends req as a multipart form with the file at path attached
	// as the "file" part.
	Upload(ctx context.Context, endpoint string, req *signer.Request, path string) (Reply, error)

	// Download sends req and streams a binary answer into dst. When the
	// server answers with a reply instead of a file, streamed is false and
	// nothing is written.
	Download(ctx context.Context, endpoint string, req *signer.Request, dst io.Writer) (reply Reply, streamed bool, err error)
}
