package sdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// AuthController resolves the identity of the current session.
//
// The cached identity from the SessionStore is published first as a provisional value,
// then replaced by the result of the authoritative fetch. A failed fetch publishes an
// error but keeps the provisional identity; callers that must not trust it check Verified.
type AuthController struct {
	notifier

	store   SessionStore
	service IdentityService
	logger  *slog.Logger

	mu       sync.Mutex
	epoch    uint64
	identity *Identity
	verified bool
	settled  bool
	err      string
}

// NewAuthController builds a controller reading from store and resolving through service.
func NewAuthController(store SessionStore, service IdentityService, opts ...Option) *AuthController {
	o := buildOptions(opts)
	return &AuthController{
		store:   store,
		service: service,
		logger:  o.logger,
	}
}

// ResolveCurrentIdentity publishes the cached identity, then the authoritative one.
// It never writes to the SessionStore.
func (a *AuthController) ResolveCurrentIdentity(ctx context.Context) {
	a.mu.Lock()
	epoch := a.epoch
	a.mu.Unlock()

	var token string
	session, err := a.store.Get(ctx)
	switch {
	case err == nil:
		token = session.Token
		if session.Identity != nil {
			a.publishProvisional(epoch, *session.Identity)
		}
	case errors.Is(err, ErrNoSession):
	default:
		a.logger.Warn("read session", slog.Any("error", err))
	}

	identity, err := a.service.CurrentIdentity(ctx, token)
	if err != nil {
		a.logger.Error("failed to fetch current user", slog.Any("error", err))
		a.mu.Lock()
		if a.epoch != epoch {
			a.mu.Unlock()
			return
		}
		a.err = MsgIdentityFetchFailed
		a.settled = true
		a.mu.Unlock()
		a.publish()
		return
	}

	resolved := identity.Clone()
	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	a.identity = &resolved
	a.verified = true
	a.settled = true
	a.err = ""
	a.mu.Unlock()
	a.publish()
}

// Reset forgets the published identity, as after logout. A resolution still in flight is
// discarded when it settles.
func (a *AuthController) Reset() {
	a.mu.Lock()
	a.epoch++
	a.identity = nil
	a.verified = false
	a.settled = true
	a.err = ""
	a.mu.Unlock()
	a.publish()
}

func (a *AuthController) publishProvisional(epoch uint64, identity Identity) {
	cached := identity.Clone()
	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	a.identity = &cached
	a.verified = false
	a.mu.Unlock()
	a.publish()
}

// Identity returns a copy of the published identity, or nil when none is known.
func (a *AuthController) Identity() *Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return nil
	}
	out := a.identity.Clone()
	return &out
}

// Verified reports whether the published identity came from the identity service.
func (a *AuthController) Verified() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verified
}

// Settled reports whether the authoritative fetch has completed, successfully or not.
func (a *AuthController) Settled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settled
}

// Err returns the published error message, empty when the last fetch succeeded.
func (a *AuthController) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
