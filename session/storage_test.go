// ABOUTME: Tests for file and badger session storage
// ABOUTME: Verifies both keys persist together, clear together, and stay private
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/models"
)

func TestFileStorageRoundTrip(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "salesdesk", "session.json"))

	token, user, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)

	require.NoError(t, fs.Save("tok", alice))

	info, err := os.Stat(fs.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, user, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	require.NotNil(t, user)
	assert.Equal(t, alice.Email, user.Email)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear(), "clearing twice is fine")
	token, user, err = fs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestFileStorageHoldsExactlyTwoKeys(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, fs.Save("tok", alice))

	data, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	var kv map[string]string
	require.NoError(t, json.Unmarshal(data, &kv))

	assert.Len(t, kv, 2)
	assert.Equal(t, "tok", kv[KeyToken])
	var u models.User
	require.NoError(t, json.Unmarshal([]byte(kv[KeyUser]), &u), "user is stored as serialized JSON")
}

func TestFileStorageIgnoresHalfASession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth_token": "tok"}`), 0600))

	token, user, err := NewFileStorage(path).Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestFileStorageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0600))

	_, _, err := NewFileStorage(path).Load()
	assert.Error(t, err)
}

func TestBadgerStorageRoundTrip(t *testing.T) {
	bs, err := OpenBadgerStorage(filepath.Join(t.TempDir(), "session.badger"))
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	token, user, err := bs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)

	require.NoError(t, bs.Save("tok", alice))
	token, user, err = bs.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, alice.FullName, user.FullName)

	require.NoError(t, bs.Clear())
	token, user, err = bs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}
