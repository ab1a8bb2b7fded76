package reposync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
)

// Result describes the outcome of a sync operation.
type Result struct {
	// UpToDate is set when the server reported the local signature current.
	// Nothing was transferred or written.
	UpToDate bool

	// RepoID is the content-addressed identifier of the repository.
	RepoID string

	// EncFileName is the name the ciphertext is stored under.
	EncFileName string

	// Signature is the repository signature after the operation.
	Signature string

	// FileHash is the SHA-256 of the uploaded ciphertext.
	FileHash string

	// Path is the archive that was uploaded or written.
	Path string
}

// Syncer runs the freshness, upload and download flows for the current
// repository using the session's keys.
type Syncer struct {
	sess   *session.Session
	repo   *session.CurrentRepo
	signer *signer.Signer
	tr     transport.Transport
	log    logger.Logger
}

func New(sess *session.Session, repo *session.CurrentRepo, sgn *signer.Signer, tr transport.Transport, log logger.Logger) *Syncer {
	return &Syncer{sess: sess, repo: repo, signer: sgn, tr: tr, log: log}
}

// RepoID is the hex SHA-256 of the repository name, so the server never
// sees the plaintext name.
func RepoID(name string) string {
	return crypto.HashString(name)
}

// EncFileName derives the storage name of a repository: the hex AES-GCM
// encryption of its name under the session key and IV. The derivation is
// deterministic for a given session key.
func (s *Syncer) EncFileName(name string) (string, error) {
	key := s.sess.AESKey()
	defer crypto.Wipe(key)
	iv := s.sess.IV()
	defer crypto.Wipe(iv)

	if len(key) == 0 || len(iv) == 0 {
		return "", kerrors.ErrKeyNotFound
	}

	out, err := crypto.For(crypto.KindAESGCMHex).Encrypt(crypto.Params{Input: []byte(name), Key: key, IV: iv})
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return string(out), nil
}

// prepare checks the preconditions shared by every flow and derives the
// current repository's file name.
func (s *Syncer) prepare() (session.Repo, error) {
	if !s.sess.HasAccessToken() {
		return session.Repo{}, kerrors.ErrNoValidLogin
	}
	if !s.sess.HasAESKey() {
		return session.Repo{}, kerrors.ErrKeyNotFound
	}

	repo := s.repo.Snapshot()
	if repo.Name == "" {
		return session.Repo{}, kerrors.ErrNoRepository
	}

	encName, err := s.EncFileName(repo.Name)
	if err != nil {
		return session.Repo{}, err
	}
	s.repo.SetEncFileName(encName)
	repo.EncFileName = encName
	return repo, nil
}

// Check asks the server whether the local signature is current. An
// upToDate answer is a successful no-op.
func (s *Syncer) Check(ctx context.Context) (*Result, error) {
	repo, err := s.prepare()
	if err != nil {
		return nil, err
	}
	repoID := RepoID(repo.Name)

	req, err := s.signer.Authenticated(
		signer.F("repoId", repoID),
		signer.F("repoSignature", repo.Signature),
	)
	if err != nil {
		return nil, err
	}

	reply, err := s.tr.Post(ctx, transport.EndpointCheckRepo, req)
	if err != nil {
		return nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}

	result := &Result{RepoID: repoID, EncFileName: repo.EncFileName, Signature: repo.Signature}
	if reply.UpToDate() {
		result.UpToDate = true
		s.log.Debugf("Repository %s is up to date", repoID)
		return result, nil
	}
	if sig := reply.Get("repoSignature"); sig != "" {
		result.Signature = sig
	}
	return result, nil
}

// Upload encrypts the archive at path in place under the session key and IV,
// hashes the ciphertext and sends both with the repository metadata.
func (s *Syncer) Upload(ctx context.Context, path string) (*Result, error) {
	repo, err := s.prepare()
	if err != nil {
		return nil, err
	}
	repoID := RepoID(repo.Name)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}

	key, iv := s.sess.AESKey(), s.sess.IV()
	encodedIV, err := crypto.For(crypto.KindAESGCMFile).Encrypt(crypto.Params{Path: path, Key: key, IV: iv})
	crypto.Wipe(key)
	crypto.Wipe(iv)
	if err != nil {
		s.log.Debugf("Encrypting archive failed: %v", err)
		return nil, kerrors.ErrEncryptFailed
	}

	fileHash, err := crypto.For(crypto.KindSHA256File).Encrypt(crypto.Params{Path: path})
	if err != nil {
		return nil, err
	}

	req, err := s.signer.Authenticated(
		signer.F("repoId", repoID),
		signer.F("encFileName", repo.EncFileName),
		signer.F("repoSignature", repo.Signature),
		signer.F("iv", string(encodedIV)),
		signer.F("fileHash", string(fileHash)),
	)
	if err != nil {
		return nil, err
	}

	reply, err := s.tr.Upload(ctx, transport.EndpointUpload, req, path)
	if err != nil {
		return nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RepoID:      repoID,
		EncFileName: repo.EncFileName,
		Signature:   repo.Signature,
		FileHash:    string(fileHash),
		Path:        path,
	}
	if sig := reply.Get("repoSignature"); sig != "" {
		s.repo.SetSignature(sig)
		result.Signature = sig
	}
	s.log.Infof("Uploaded %s (%s)", repo.EncFileName, result.FileHash)
	return result, nil
}

// Download fetches the ciphertext for the current repository into a temp
// file and decrypts it to dest. When the server reports the local signature
// current, nothing is written.
func (s *Syncer) Download(ctx context.Context, dest string) (*Result, error) {
	repo, err := s.prepare()
	if err != nil {
		return nil, err
	}
	repoID := RepoID(repo.Name)

	req, err := s.signer.Authenticated(
		signer.F("encFileName", repo.EncFileName),
		signer.F("repoSignature", repo.Signature),
	)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".zkgit-download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	reply, streamed, err := s.tr.Download(ctx, transport.EndpointDownload, req, tmp)
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{RepoID: repoID, EncFileName: repo.EncFileName, Signature: repo.Signature}
	if !streamed {
		if err := reply.Err(); err != nil {
			return nil, err
		}
		if reply.UpToDate() {
			result.UpToDate = true
			return result, nil
		}
		return nil, fmt.Errorf("%w: expected repository data", kerrors.ErrMalformedResponse)
	}

	key, iv := s.sess.AESKey(), s.sess.IV()
	_, err = crypto.For(crypto.KindAESGCMFile).Decrypt(crypto.Params{Path: tmpName, OutPath: dest, Key: key, IV: iv})
	crypto.Wipe(key)
	crypto.Wipe(iv)
	if err != nil {
		s.log.Debugf("Decrypting download for %s failed", repo.EncFileName)
		return nil, kerrors.ErrDecryptFailed
	}

	if sig := reply.Get("repoSignature"); sig != "" {
		s.repo.SetSignature(sig)
		result.Signature = sig
	}
	result.Path = dest
	s.log.Infof("Downloaded %s to %s", repo.EncFileName, dest)
	return result, nil
}
