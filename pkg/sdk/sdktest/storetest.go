package sdktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

// RunSessionStoreTests checks the put/get/clear contract every SessionStore must honor.
// newStore must return an empty store.
func RunSessionStoreTests(t *testing.T, newStore func(t *testing.T) sdk.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store has no session", func(t *testing.T) {
		store := newStore(t)
		session, err := store.Get(ctx)
		assert.ErrorIs(t, err, sdk.ErrNoSession)
		assert.Nil(t, session)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		store := newStore(t)
		want := sdk.Session{
			Token: "t1",
			Identity: &sdk.Identity{
				ID:       1,
				Username: "alice",
				Email:    "alice@example.com",
				Roles:    sdk.RoleSet{"user", "auditor"},
			},
		}
		require.NoError(t, store.Put(ctx, want))

		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	})

	t.Run("put overwrites previous session", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, sdk.Session{Token: "old", Identity: &sdk.Identity{ID: 1, Roles: sdk.RoleSet{}}}))
		require.NoError(t, store.Put(ctx, sdk.Session{Token: "new", Identity: &sdk.Identity{ID: 2, Roles: sdk.RoleSet{"admin"}}}))

		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Token)
		assert.Equal(t, int64(2), got.Identity.ID)
	})

	t.Run("partial session is rejected", func(t *testing.T) {
		store := newStore(t)
		assert.ErrorIs(t, store.Put(ctx, sdk.Session{Token: "t1"}), sdk.ErrValidation)
		assert.ErrorIs(t, store.Put(ctx, sdk.Session{Identity: &sdk.Identity{ID: 1}}), sdk.ErrValidation)

		_, err := store.Get(ctx)
		assert.ErrorIs(t, err, sdk.ErrNoSession)
	})

	t.Run("clear removes both fields", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, sdk.Session{Token: "t1", Identity: &sdk.Identity{ID: 1, Roles: sdk.RoleSet{"user"}}}))
		require.NoError(t, store.Clear(ctx))

		session, err := store.Get(ctx)
		assert.ErrorIs(t, err, sdk.ErrNoSession)
		assert.Nil(t, session)
	})

	t.Run("clear on empty store succeeds", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Clear(ctx))
		_, err := store.Get(ctx)
		assert.ErrorIs(t, err, sdk.ErrNoSession)
	})

	t.Run("returned session does not alias stored state", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, sdk.Session{Token: "t1", Identity: &sdk.Identity{ID: 1, Roles: sdk.RoleSet{"user"}}}))

		got, err := store.Get(ctx)
		require.NoError(t, err)
		got.Identity.Roles[0] = "admin"

		again, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdk.RoleSet{"user"}, again.Identity.Roles)
	})
}
