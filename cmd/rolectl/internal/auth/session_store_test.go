package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/rolegate/pkg/sdk"
	"github.com/terraconstructs/rolegate/pkg/sdk/sdktest"
)

func TestFileStore_Contract(t *testing.T) {
	sdktest.RunSessionStoreTests(t, func(t *testing.T) sdk.SessionStore {
		store, err := NewFileStoreAt(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestFileStore_FileFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewFileStoreAt(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sdk.Session{
		Token:    "t1",
		Identity: &sdk.Identity{ID: 1, Username: "root", Email: "root@example.com", Roles: sdk.RoleSet{"admin"}},
	}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"access_token": "t1",
		"user": {"id": 1, "username": "root", "email": "root@example.com", "roles": ["admin"]}
	}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_IncompleteFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "token only", content: `{"access_token":"t1"}`, wantErr: sdk.ErrNoSession},
		{name: "identity only", content: `{"user":{"id":1,"roles":[]}}`, wantErr: sdk.ErrNoSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewFileStoreAt(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0600))

			_, err = store.Get(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	store, err := NewFileStoreAt(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))

	_, err = store.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, sdk.ErrNoSession)
	assert.ErrorContains(t, err, "failed to unmarshal session")
}
