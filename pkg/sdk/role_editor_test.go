package sdk_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

type queuedRoles struct {
	ID    int64
	Roles sdk.RoleSet
}

// recordingMutator applies mutations synchronously and records them in queue order.
type recordingMutator struct {
	mu      sync.Mutex
	queued  []queuedRoles
	applied int
}

func (m *recordingMutator) QueueMutation(id int64, roles sdk.RoleSet) sdk.PendingMutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, queuedRoles{ID: id, Roles: roles.Clone()})
	return pendingFunc(func(context.Context) {
		m.mu.Lock()
		m.applied++
		m.mu.Unlock()
	})
}

func (m *recordingMutator) Queued() []queuedRoles {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queuedRoles(nil), m.queued...)
}

type pendingFunc func(ctx context.Context)

func (f pendingFunc) Apply(ctx context.Context) { f(ctx) }

func TestRoleEditor_ToggleSubmitsFoldedSet(t *testing.T) {
	mutator := &recordingMutator{}
	editor := sdk.NewRoleEditor(bobUser, mutator)

	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleModerator, true))
	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleUser, false))
	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleAdmin, true))
	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleAdmin, true))

	assert.Equal(t, []queuedRoles{
		{ID: 2, Roles: sdk.RoleSet{"user", "moderator"}},
		{ID: 2, Roles: sdk.RoleSet{"moderator"}},
		{ID: 2, Roles: sdk.RoleSet{"moderator", "admin"}},
		{ID: 2, Roles: sdk.RoleSet{"moderator", "admin"}},
	}, mutator.Queued())
	assert.Equal(t, 4, mutator.applied)
	assert.True(t, editor.Checked(sdk.RoleAdmin))
	assert.False(t, editor.Checked(sdk.RoleUser))
	assert.Equal(t, sdk.RoleSet{"user"}, editor.Entry().Roles, "the entry snapshot is not edited")
}

func TestRoleEditor_RejectsNonEditableRole(t *testing.T) {
	mutator := &recordingMutator{}
	editor := sdk.NewRoleEditor(bobUser, mutator)

	err := editor.Toggle(context.Background(), "auditor", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrValidation)
	assert.Empty(t, mutator.Queued())
}

func TestRoleEditor_PreservesUnknownRoles(t *testing.T) {
	mutator := &recordingMutator{}
	entry := sdk.Identity{ID: 4, Username: "erin", Roles: sdk.RoleSet{"auditor", "user"}}
	editor := sdk.NewRoleEditor(entry, mutator)

	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleUser, false))
	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleModerator, true))

	queued := mutator.Queued()
	require.Len(t, queued, 2)
	assert.Equal(t, sdk.RoleSet{"auditor"}, queued[0].Roles)
	assert.Equal(t, sdk.RoleSet{"auditor", "moderator"}, queued[1].Roles)
}

func TestRoleEditor_SubmitResends(t *testing.T) {
	mutator := &recordingMutator{}
	editor := sdk.NewRoleEditor(bobUser, mutator)

	editor.Submit(context.Background())
	editor.Submit(context.Background())

	assert.Equal(t, []queuedRoles{
		{ID: 2, Roles: sdk.RoleSet{"user"}},
		{ID: 2, Roles: sdk.RoleSet{"user"}},
	}, mutator.Queued())
}

func TestRoleEditor_FoldMatchesToggleSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		mutator := &recordingMutator{}
		editor := sdk.NewRoleEditor(bobUser, mutator)
		want := bobUser.Roles.Clone()

		steps := rng.Intn(10) + 1
		for j := 0; j < steps; j++ {
			role := sdk.EditableRoles[rng.Intn(len(sdk.EditableRoles))]
			on := rng.Intn(2) == 0
			if on {
				want = want.With(role)
			} else {
				want = want.Without(role)
			}
			require.NoError(t, editor.Toggle(context.Background(), role, on))
		}

		queued := mutator.Queued()
		require.Len(t, queued, steps)
		assert.Equal(t, want, queued[len(queued)-1].Roles)
		assert.Equal(t, want, editor.Roles())
	}
}

func TestRoleEditor_ConcurrentTogglesQueueInFoldOrder(t *testing.T) {
	mutator := &recordingMutator{}
	editor := sdk.NewRoleEditor(carolUser, mutator)

	var wg sync.WaitGroup
	for _, role := range sdk.EditableRoles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = editor.Toggle(context.Background(), role, true)
		}()
	}
	wg.Wait()

	queued := mutator.Queued()
	require.Len(t, queued, len(sdk.EditableRoles))
	for i, q := range queued {
		assert.Len(t, q.Roles, i+1, "each queued set extends the previous one")
	}
	assert.ElementsMatch(t, sdk.EditableRoles, []string(queued[len(queued)-1].Roles))
}

func TestRoleEditor_WithRosterController(t *testing.T) {
	svc := &stubService{listFn: returnRoster(rootUser, bobUser)}
	ctrl := sdk.NewRosterController(storeWith("t1", rootUser), svc, quiet())
	editor := sdk.NewRoleEditor(bobUser, ctrl)

	require.NoError(t, editor.Toggle(context.Background(), sdk.RoleModerator, true))

	sent := svc.replaceCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, replaceCall{Token: "t1", ID: 2, Roles: sdk.RoleSet{"user", "moderator"}}, sent[0])
	assert.Equal(t, 1, svc.listCalls())
}

func TestRoleEditor_SetRoles(t *testing.T) {
	mutator := &recordingMutator{}
	entry := sdk.Identity{ID: 4, Username: "erin", Roles: sdk.RoleSet{"auditor", "user"}}
	editor := sdk.NewRoleEditor(entry, mutator)

	require.NoError(t, editor.SetRoles(context.Background(), []string{"moderator", "admin", "moderator"}))
	require.NoError(t, editor.SetRoles(context.Background(), nil))

	err := editor.SetRoles(context.Background(), []string{"user", "root"})
	assert.ErrorIs(t, err, sdk.ErrValidation)

	assert.Equal(t, []queuedRoles{
		{ID: 4, Roles: sdk.RoleSet{"auditor", "moderator", "admin"}},
		{ID: 4, Roles: sdk.RoleSet{"auditor"}},
	}, mutator.Queued())
	assert.Equal(t, sdk.RoleSet{"auditor"}, editor.Roles())
}
