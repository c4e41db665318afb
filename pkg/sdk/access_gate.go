package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// GateState is the rendering phase of the access gate.
type GateState int

const (
	// GateLoading: the roster or the identity has not settled yet.
	GateLoading GateState = iota
	// GateReady: an identity is available to render, possibly alongside an error.
	GateReady
	// GateError: everything settled and no identity is known.
	GateError
)

func (s GateState) String() string {
	switch s {
	case GateLoading:
		return "loading"
	case GateReady:
		return "ready"
	case GateError:
		return "error"
	default:
		return fmt.Sprintf("GateState(%d)", int(s))
	}
}

// View is a snapshot of what the gate renders.
type View struct {
	State GateState
	// Identity is the published identity, provisional unless Verified.
	Identity *Identity
	Verified bool
	// Privileged selects the roster editor over the restricted dashboard.
	Privileged bool
	// Roster is only populated for privileged views.
	Roster []Identity
	Error  string
}

// HasError reports whether an error message should be shown.
func (v View) HasError() bool {
	return v.Error != ""
}

// AccessGate composes the auth and roster controllers and decides what to render.
//
// The admin check is a UX affordance only; the identity service enforces authorization on
// every privileged endpoint.
type AccessGate struct {
	notifier

	auth      *AuthController
	roster    *RosterController
	store     SessionStore
	navigator Navigator
	logger    *slog.Logger

	requireVerified bool

	mu      sync.Mutex
	editors map[int64]*RoleEditor
}

// NewAccessGate wires the controllers for a session held in store. A nil navigator
// ignores navigation requests.
func NewAccessGate(store SessionStore, service Service, navigator Navigator, opts ...Option) *AccessGate {
	o := buildOptions(opts)
	if navigator == nil {
		navigator = noopNavigator{}
	}
	g := &AccessGate{
		auth:            NewAuthController(store, service, opts...),
		roster:          NewRosterController(store, service, opts...),
		store:           store,
		navigator:       navigator,
		logger:          o.logger,
		requireVerified: o.requireVerified,
		editors:         make(map[int64]*RoleEditor),
	}
	g.auth.Subscribe(g.publish)
	g.roster.Subscribe(g.publish)
	return g
}

// Auth returns the identity controller.
func (g *AccessGate) Auth() *AuthController { return g.auth }

// Roster returns the roster controller.
func (g *AccessGate) Roster() *RosterController { return g.roster }

// Activate resolves the identity and fetches the roster concurrently and returns once both
// have settled. Either may settle first; failures are published, not returned.
func (g *AccessGate) Activate(ctx context.Context) {
	var eg errgroup.Group
	eg.Go(func() error {
		g.auth.ResolveCurrentIdentity(ctx)
		return nil
	})
	eg.Go(func() error {
		g.roster.FetchRoster(ctx)
		return nil
	})
	_ = eg.Wait()
}

// View computes the current rendering decision and refreshes the per-entry editors.
func (g *AccessGate) View() View {
	identity := g.auth.Identity()
	verified := g.auth.Verified()

	v := View{
		Identity: identity,
		Verified: verified,
		Error:    g.roster.Err(),
	}
	if v.Error == "" {
		v.Error = g.auth.Err()
	}

	switch {
	case g.roster.Loading() || (identity == nil && !g.auth.Settled()):
		v.State = GateLoading
	case identity == nil:
		v.State = GateError
	default:
		v.State = GateReady
	}

	v.Privileged = v.State == GateReady && identity.IsAdmin() && (verified || !g.requireVerified)
	if v.Privileged {
		v.Roster = g.roster.Roster()
		g.syncEditors(v.Roster)
	}
	return v
}

// Editor returns the editor for roster entry id. Editors are created when an entry is
// first rendered and dropped once it leaves the roster.
func (g *AccessGate) Editor(id int64) (*RoleEditor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.editors[id]
	return e, ok
}

// Logout clears the stored session and the published identity and roster, then navigates
// to the login view. The identity service is not notified.
func (g *AccessGate) Logout(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error("clear session", slog.Any("error", err))
		return fmt.Errorf("failed to clear session: %w", err)
	}
	g.auth.Reset()
	g.roster.Reset()
	g.mu.Lock()
	g.editors = make(map[int64]*RoleEditor)
	g.mu.Unlock()
	g.navigator.Navigate(LoginPath)
	return nil
}

func (g *AccessGate) syncEditors(roster []Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[int64]struct{}, len(roster))
	for _, entry := range roster {
		seen[entry.ID] = struct{}{}
		if _, ok := g.editors[entry.ID]; !ok {
			g.editors[entry.ID] = NewRoleEditor(entry, g.roster)
		}
	}
	for id := range g.editors {
		if _, ok := seen[id]; !ok {
			delete(g.editors, id)
		}
	}
}
