package sdk_test

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

func TestRoleSet_WithWithout(t *testing.T) {
	base := sdk.RoleSet{"user"}

	withMod := base.With("moderator")
	assert.Equal(t, sdk.RoleSet{"user", "moderator"}, withMod)
	assert.Equal(t, sdk.RoleSet{"user"}, base, "With must not mutate the receiver")

	assert.Equal(t, withMod, withMod.With("user"), "adding a present role is a no-op")
	assert.Equal(t, sdk.RoleSet{"moderator"}, withMod.Without("user"))
	assert.Equal(t, sdk.RoleSet{"user"}, base.Without("admin"))
}

func TestNewRoleSet_DropsDuplicates(t *testing.T) {
	assert.Equal(t, sdk.RoleSet{"admin", "user"}, sdk.NewRoleSet("admin", "user", "admin"))
	assert.Equal(t, sdk.RoleSet{}, sdk.NewRoleSet())
}

func TestRoleSet_UnknownPreserved(t *testing.T) {
	roles := sdk.RoleSet{"auditor", "user", "billing"}
	assert.Equal(t, []string{"auditor", "billing"}, roles.Unknown())

	toggled := roles.With("admin").Without("user")
	assert.Equal(t, sdk.RoleSet{"auditor", "billing", "admin"}, toggled)
}

func TestRoleSet_CloneEncodesAsArray(t *testing.T) {
	var roles sdk.RoleSet
	data, err := json.Marshal(roles.Clone())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

// Folding toggles over the initial set is order-dependent only through the toggles
// themselves: each role ends up present iff its last toggle included it.
func TestRoleSet_FoldMatchesLastToggle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		set := sdk.RoleSet{"user"}
		last := map[string]bool{"user": true}
		steps := rng.Intn(12)
		for j := 0; j < steps; j++ {
			role := sdk.EditableRoles[rng.Intn(len(sdk.EditableRoles))]
			included := rng.Intn(2) == 0
			if included {
				set = set.With(role)
			} else {
				set = set.Without(role)
			}
			last[role] = included
		}
		for _, role := range sdk.EditableRoles {
			assert.Equal(t, last[role], set.Has(role), "role %s", role)
		}
		assert.Len(t, set, len(sdk.NewRoleSet(set...)), "no duplicates")
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	var nilIdentity *sdk.Identity
	assert.False(t, nilIdentity.IsAdmin())
	assert.True(t, (&sdk.Identity{Roles: sdk.RoleSet{"user", "admin"}}).IsAdmin())
	assert.False(t, (&sdk.Identity{Roles: sdk.RoleSet{"Admin"}}).IsAdmin())
}

func TestIsEditableRole(t *testing.T) {
	for _, role := range []string{"admin", "moderator", "user"} {
		assert.True(t, sdk.IsEditableRole(role), role)
	}
	assert.False(t, sdk.IsEditableRole("auditor"))
}
