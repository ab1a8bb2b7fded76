package reposync

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/zkgit/internal/crypto"
	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
	"github.com/PolarWolf314/zkgit/internal/session"
	"github.com/PolarWolf314/zkgit/internal/signer"
	"github.com/PolarWolf314/zkgit/internal/transport"
	"github.com/PolarWolf314/zkgit/internal/transport/transporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	sess *session.Session
	repo *session.CurrentRepo
	fake *transporttest.Fake
	sync *Syncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sess := session.New()
	sess.SetAccountNumber("1234567890123456789012345")
	sess.SetUsername("alice")
	sess.SetAccessToken(bytes.Repeat([]byte("t"), session.AccessTokenLength))
	sess.SetAESKey(bytes.Repeat([]byte{0x42}, 32))
	sess.SetIV(bytes.Repeat([]byte{0x07}, crypto.NonceSize))

	repo := session.NewCurrentRepo()
	repo.Set("myrepo", "sig0")

	fake := transporttest.New()
	return &fixture{
		sess: sess,
		repo: repo,
		fake: fake,
		sync: New(sess, repo, signer.New(sess), fake, logger.Discard()),
	}
}

func (f *fixture) encrypt(t *testing.T, plaintext []byte) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, plaintext, 0600))
	_, err := crypto.For(crypto.KindAESGCMFile).Encrypt(crypto.Params{Path: path, Key: f.sess.AESKey(), IV: f.sess.IV()})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRepoID(t *testing.T) {
	assert.Equal(t, crypto.HashString("myrepo"), RepoID("myrepo"))
	assert.Len(t, RepoID("myrepo"), 64)
}

func TestEncFileNameIsDeterministic(t *testing.T) {
	f := newFixture(t)

	a, err := f.sync.EncFileName("myrepo")
	require.NoError(t, err)
	b, err := f.sync.EncFileName("myrepo")
	require.NoError(t, err)
	c, err := f.sync.EncFileName("other")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "myrepo")
}

func TestEncFileNameWithoutKey(t *testing.T) {
	f := newFixture(t)
	f.sess.ClearUserData()

	_, err := f.sync.EncFileName("myrepo")
	assert.True(t, errors.Is(err, kerrors.ErrKeyNotFound))
}

func TestOperationsRequireLogin(t *testing.T) {
	f := newFixture(t)
	f.sess.ClearAccessToken()

	_, err := f.sync.Check(context.Background())
	assert.True(t, errors.Is(err, kerrors.ErrNoValidLogin))
	assert.Empty(t, f.fake.Calls())
}

func TestOperationsRequireRepository(t *testing.T) {
	f := newFixture(t)
	f.repo.Clear()

	_, err := f.sync.Download(context.Background(), filepath.Join(t.TempDir(), "out"))
	assert.True(t, errors.Is(err, kerrors.ErrNoRepository))
}

func TestCheckUpToDate(t *testing.T) {
	f := newFixture(t)
	f.fake.Reply(transport.EndpointCheckRepo, transport.Reply{"status": transport.StatusUpToDate})

	res, err := f.sync.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
	assert.Equal(t, RepoID("myrepo"), res.RepoID)

	calls := f.fake.Calls()
	require.Len(t, calls, 1)
	sig, _ := calls[0].Request.Get("repoSignature")
	assert.Equal(t, "sig0", sig)
	assert.NotEmpty(t, f.repo.Snapshot().EncFileName)
}

func TestUploadEncryptsAndStoresSignature(t *testing.T) {
	f := newFixture(t)
	f.fake.Reply(transport.EndpointUpload, transport.Reply{"status": transport.StatusOK, "repoSignature": "sig1"})

	plaintext := []byte("PACK git bundle contents")
	archive := filepath.Join(t.TempDir(), "myrepo.bundle")
	require.NoError(t, os.WriteFile(archive, plaintext, 0600))

	res, err := f.sync.Upload(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, "sig1", res.Signature)
	assert.Equal(t, "sig1", f.repo.Snapshot().Signature)

	calls := f.fake.Calls()
	require.Len(t, calls, 1)
	uploaded := calls[0].Upload
	assert.NotContains(t, string(uploaded), "git bundle")

	hash, _ := calls[0].Request.Get("fileHash")
	assert.Equal(t, crypto.HashString(string(uploaded)), hash)
	assert.Equal(t, res.FileHash, hash)

	encName, _ := calls[0].Request.Get("encFileName")
	assert.Equal(t, f.repo.Snapshot().EncFileName, encName)

	iv, _ := calls[0].Request.Get("iv")
	assert.Equal(t, base64.StdEncoding.EncodeToString(f.sess.IV()), iv)
	sealed, err := crypto.For(crypto.KindAESGCM).Encrypt(crypto.Params{Input: plaintext, Key: f.sess.AESKey(), IV: f.sess.IV()})
	require.NoError(t, err)
	assert.Equal(t, string(sealed), base64.StdEncoding.EncodeToString(uploaded), "archive is sealed under the session IV with no prefix")

	require.NoError(t, os.WriteFile(archive, uploaded, 0600))
	_, err = crypto.For(crypto.KindAESGCMFile).Decrypt(crypto.Params{Path: archive, Key: f.sess.AESKey(), IV: f.sess.IV()})
	require.NoError(t, err)
	got, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestUploadServerError(t *testing.T) {
	f := newFixture(t)
	f.fake.Reply(transport.EndpointUpload, transport.Reply{"error": "No valid login"})

	archive := filepath.Join(t.TempDir(), "myrepo.bundle")
	require.NoError(t, os.WriteFile(archive, []byte("data"), 0600))

	_, err := f.sync.Upload(context.Background(), archive)
	assert.True(t, errors.Is(err, kerrors.ErrNoValidLogin))
	assert.Equal(t, "sig0", f.repo.Snapshot().Signature)
}

func TestDownloadUpToDateWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.fake.Reply(transport.EndpointDownload, transport.Reply{"status": transport.StatusUpToDate})

	dest := filepath.Join(t.TempDir(), "myrepo.bundle")
	res, err := f.sync.Download(context.Background(), dest)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

func TestDownloadDecryptsToDestination(t *testing.T) {
	f := newFixture(t)
	plaintext := []byte("PACK remote contents")
	f.fake.Serve(transport.EndpointDownload, f.encrypt(t, plaintext), transport.Reply{"repoSignature": "sig2"})

	dest := filepath.Join(t.TempDir(), "myrepo.bundle")
	res, err := f.sync.Download(context.Background(), dest)
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
	assert.Equal(t, "sig2", f.repo.Snapshot().Signature)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDownloadTamperedIsDecryptFailed(t *testing.T) {
	f := newFixture(t)
	data := f.encrypt(t, []byte("PACK remote contents"))
	data[len(data)-1] ^= 0xff
	f.fake.Serve(transport.EndpointDownload, data, nil)

	dest := filepath.Join(t.TempDir(), "myrepo.bundle")
	_, err := f.sync.Download(context.Background(), dest)
	require.Error(t, err)
	assert.Equal(t, kerrors.ErrDecryptFailed.Error(), err.Error())

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadConnectionFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.sync.Download(context.Background(), filepath.Join(t.TempDir(), "out"))
	assert.True(t, errors.Is(err, kerrors.ErrConnectionFailure))
}
