package sdk

import (
	"context"
	"fmt"
	"sync"
)

// RoleEditor edits the role set of one roster entry.
//
// The edited set starts as the entry's roles and diverges as roles are toggled. The roster
// shown by the gate only catches up once the refetch that follows each mutation settles.
type RoleEditor struct {
	entry   Identity
	mutator RoleMutator

	mu    sync.Mutex
	roles RoleSet
}

// NewRoleEditor seeds an editor from entry.
func NewRoleEditor(entry Identity, mutator RoleMutator) *RoleEditor {
	entry = entry.Clone()
	return &RoleEditor{
		entry:   entry,
		mutator: mutator,
		roles:   entry.Roles.Clone(),
	}
}

// Toggle adds or removes role and immediately submits the resulting set.
// Only EditableRoles can be toggled; labels the editor does not manage are carried along
// untouched.
func (e *RoleEditor) Toggle(ctx context.Context, role string, included bool) error {
	if !IsEditableRole(role) {
		return fmt.Errorf("%w: role %q is not editable", ErrValidation, role)
	}

	e.mu.Lock()
	if included {
		e.roles = e.roles.With(role)
	} else {
		e.roles = e.roles.Without(role)
	}
	pending := e.mutator.QueueMutation(e.entry.ID, e.roles)
	e.mu.Unlock()

	pending.Apply(ctx)
	return nil
}

// SetRoles replaces the editable roles of the edited set with roles and submits the result.
// Labels outside EditableRoles already on the entry are kept.
func (e *RoleEditor) SetRoles(ctx context.Context, roles []string) error {
	for _, role := range roles {
		if !IsEditableRole(role) {
			return fmt.Errorf("%w: role %q is not editable", ErrValidation, role)
		}
	}

	e.mu.Lock()
	next := NewRoleSet(e.roles.Unknown()...)
	for _, role := range roles {
		next = next.With(role)
	}
	e.roles = next
	pending := e.mutator.QueueMutation(e.entry.ID, e.roles)
	e.mu.Unlock()

	pending.Apply(ctx)
	return nil
}

// Submit resends the current edited set, even when nothing changed since the last toggle.
func (e *RoleEditor) Submit(ctx context.Context) {
	e.mu.Lock()
	pending := e.mutator.QueueMutation(e.entry.ID, e.roles)
	e.mu.Unlock()

	pending.Apply(ctx)
}

// Roles returns a copy of the edited set.
func (e *RoleEditor) Roles() RoleSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.Clone()
}

// Checked reports whether role is in the edited set.
func (e *RoleEditor) Checked(role string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.Has(role)
}

// Entry returns the roster entry the editor was created from.
func (e *RoleEditor) Entry() Identity {
	return e.entry.Clone()
}
