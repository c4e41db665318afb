package sdk

import (
	"slices"
	"strings"
)

// Role labels the roster editor is able to grant or revoke.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// EditableRoles is the closed set of labels offered by the roster editor, in display order.
var EditableRoles = []string{RoleAdmin, RoleModerator, RoleUser}

// IsEditableRole reports whether role belongs to EditableRoles.
func IsEditableRole(role string) bool {
	return slices.Contains(EditableRoles, role)
}

// Identity is a user account as known to the identity service.
type Identity struct {
	ID       int64   `json:"id" yaml:"id"`
	Username string  `json:"username" yaml:"username"`
	Email    string  `json:"email" yaml:"email"`
	Roles    RoleSet `json:"roles" yaml:"roles"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Roles.Has(RoleAdmin)
}

// Clone returns a deep copy of the identity.
func (i Identity) Clone() Identity {
	i.Roles = i.Roles.Clone()
	return i
}

// RoleSet is an ordered set of role labels.
// Insertion order is preserved and labels outside EditableRoles are kept verbatim.
type RoleSet []string

// NewRoleSet builds a RoleSet from roles, dropping duplicates and keeping first occurrence order.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, 0, len(roles))
	for _, role := range roles {
		set = set.With(role)
	}
	return set
}

// Has reports whether role is a member of the set.
func (s RoleSet) Has(role string) bool {
	return slices.Contains(s, role)
}

// With returns a copy of the set with role appended when absent.
func (s RoleSet) With(role string) RoleSet {
	out := s.Clone()
	if out.Has(role) {
		return out
	}
	return append(out, role)
}

// Without returns a copy of the set with every occurrence of role removed.
func (s RoleSet) Without(role string) RoleSet {
	out := make(RoleSet, 0, len(s))
	for _, r := range s {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

// Clone copies the set. The result is never nil so it encodes as an empty JSON array.
func (s RoleSet) Clone() RoleSet {
	out := make(RoleSet, len(s))
	copy(out, s)
	return out
}

// Unknown returns the labels that the editor does not manage.
func (s RoleSet) Unknown() []string {
	var unknown []string
	for _, r := range s {
		if !IsEditableRole(r) {
			unknown = append(unknown, r)
		}
	}
	return unknown
}

func (s RoleSet) String() string {
	return strings.Join(s, ", ")
}
