package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/errgroup"
)

// HeaderRepoSignature carries the new repository signature on file downloads.
const HeaderRepoSignature = "X-Repo-Signature"

// HTTP talks to the server over HTTPS with a pooled client.
type HTTP struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewHTTP returns a transport for the server at baseURL.
func NewHTTP(baseURL string, timeout time.Duration, log logger.Logger) *HTTP {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

func (h *HTTP) Post(ctx context.Context, endpoint string, req *signer.Request) (Reply, error) {
	httpReq, err := h.newRequest(ctx, endpoint, strings.NewReader(encodeForm(req.Fields())))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeReply(resp.Body)
}

func (h *HTTP) Upload(ctx context.Context, endpoint string, req *signer.Request, path string) (Reply, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := writeMultipart(mw, req.Fields(), path)
		pw.CloseWithError(err)
		return err
	})

	var reply Reply
	g.Go(func() error {
		httpReq, err := h.newRequest(gctx, endpoint, pr)
		if err != nil {
			pr.CloseWithError(err)
			return err
		}
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := h.do(httpReq)
		if err != nil {
			pr.CloseWithError(err)
			return err
		}
		defer resp.Body.Close()

		reply, err = decodeReply(resp.Body)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reply, nil
}

func (h *HTTP) Download(ctx context.Context, endpoint string, req *signer.Request, dst io.Writer) (Reply, bool, error) {
	httpReq, err := h.newRequest(ctx, endpoint, strings.NewReader(encodeForm(req.Fields())))
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.do(httpReq)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		reply, err := decodeReply(resp.Body)
		return reply, false, err
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		h.log.Debugf("Download of %s interrupted: %v", endpoint, err)
		return nil, false, fmt.Errorf("%w: %v", kerrors.ErrConnectionFailure, err)
	}

	reply := Reply{"status": StatusOK}
	if sig := resp.Header.Get(HeaderRepoSignature); sig != "" {
		reply["repoSignature"] = sig
	}
	return reply, true, nil
}

func (h *HTTP) newRequest(ctx context.Context, endpoint string, body io.Reader) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	return httpReq, nil
}

func (h *HTTP) do(httpReq *http.Request) (*http.Response, error) {
	h.log.Debugf("POST %s", httpReq.URL.Path)
	resp, err := h.client.Do(httpReq)
	if err != nil {
		h.log.Debugf("Request to %s failed: %v", httpReq.URL.Path, err)
		return nil, kerrors.ErrConnectionFailure
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		h.log.Debugf("Request to %s returned %d", httpReq.URL.Path, resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", kerrors.ErrConnectionFailure, resp.StatusCode)
	}
	return resp, nil
}

// encodeForm URL-encodes fields preserving their order, which url.Values
// would not.
func encodeForm(fields []signer.Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

func writeMultipart(mw *multipart.Writer, fields []signer.Field, path string) error {
	for _, f := range fields {
		if err := mw.WriteField(f.Key, f.Value); err != nil {
			return err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to stream %s: %w", path, err)
	}
	return mw.Close()
}

// decodeReply flattens a JSON object into a Reply. Nested objects are kept
// as their JSON text.
func decodeReply(r io.Reader) (Reply, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrMalformedResponse, err)
	}

	reply := make(Reply, len(raw))
	for k, v := range raw {
		reply[k] = flatten(v)
	}
	return reply, nil
}

func flatten(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case 'n':
		return ""
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return string(trimmed)
}
