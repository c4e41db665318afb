package sdk_test

import (
	"context"
	"sync"

	"github.com/terraconstructs/rolegate/internal/logging"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

type replaceCall struct {
	Token string
	ID    int64
	Roles sdk.RoleSet
}

// stubService is a scriptable sdk.Service and sdk.LoginService.
type stubService struct {
	mu sync.Mutex

	identityFn func(ctx context.Context, token string) (*sdk.Identity, error)
	listFn     func(ctx context.Context, token string) ([]sdk.Identity, error)
	replaceFn  func(ctx context.Context, token string, id int64, roles sdk.RoleSet) error
	loginFn    func(ctx context.Context, input sdk.LoginInput) (*sdk.LoginResult, error)

	identityTokens []string
	listTokens     []string
	replaced       []replaceCall
	logins         []sdk.LoginInput
}

func (s *stubService) CurrentIdentity(ctx context.Context, token string) (*sdk.Identity, error) {
	s.mu.Lock()
	s.identityTokens = append(s.identityTokens, token)
	fn := s.identityFn
	s.mu.Unlock()
	if fn == nil {
		return nil, sdk.ErrNetwork
	}
	return fn(ctx, token)
}

func (s *stubService) ListRoster(ctx context.Context, token string) ([]sdk.Identity, error) {
	s.mu.Lock()
	s.listTokens = append(s.listTokens, token)
	fn := s.listFn
	s.mu.Unlock()
	if fn == nil {
		return []sdk.Identity{}, nil
	}
	return fn(ctx, token)
}

func (s *stubService) ReplaceRoles(ctx context.Context, token string, id int64, roles sdk.RoleSet) error {
	s.mu.Lock()
	s.replaced = append(s.replaced, replaceCall{Token: token, ID: id, Roles: roles.Clone()})
	fn := s.replaceFn
	s.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, token, id, roles)
}

func (s *stubService) Login(ctx context.Context, input sdk.LoginInput) (*sdk.LoginResult, error) {
	s.mu.Lock()
	s.logins = append(s.logins, input)
	fn := s.loginFn
	s.mu.Unlock()
	if fn == nil {
		return nil, sdk.ErrNetwork
	}
	return fn(ctx, input)
}

func (s *stubService) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listTokens)
}

func (s *stubService) replaceCalls() []replaceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]replaceCall, len(s.replaced))
	copy(out, s.replaced)
	return out
}

func returnIdentity(identity sdk.Identity) func(context.Context, string) (*sdk.Identity, error) {
	return func(context.Context, string) (*sdk.Identity, error) {
		out := identity.Clone()
		return &out, nil
	}
}

func returnRoster(roster ...sdk.Identity) func(context.Context, string) ([]sdk.Identity, error) {
	return func(context.Context, string) ([]sdk.Identity, error) {
		out := make([]sdk.Identity, len(roster))
		for i, identity := range roster {
			out[i] = identity.Clone()
		}
		return out, nil
	}
}

// countingStore records writes made through it.
type countingStore struct {
	sdk.SessionStore

	mu     sync.Mutex
	puts   int
	clears int
}

func (c *countingStore) Put(ctx context.Context, session sdk.Session) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.SessionStore.Put(ctx, session)
}

func (c *countingStore) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.clears++
	c.mu.Unlock()
	return c.SessionStore.Clear(ctx)
}

// recordingNavigator captures navigation targets.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func quiet() sdk.Option {
	return sdk.WithLogger(logging.Discard())
}

func storeWith(token string, identity sdk.Identity) *sdk.MemoryStore {
	store := sdk.NewMemoryStore()
	if err := store.Put(context.Background(), sdk.Session{Token: token, Identity: &identity}); err != nil {
		panic(err)
	}
	return store
}
