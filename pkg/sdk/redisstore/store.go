// Package redisstore keeps the session in Redis so several terminals or hosts can share one
// login.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

// DefaultPrefix namespaces the session keys.
const DefaultPrefix = "rolegate:"

// Store is an sdk.SessionStore backed by two Redis keys, one for the token and one for the
// identity. Both are written in a single MULTI/EXEC so readers never see half a session.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ sdk.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires the session after ttl. Zero keeps it until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) tokenKey() string    { return s.prefix + sdk.TokenKey }
func (s *Store) identityKey() string { return s.prefix + sdk.IdentityKey }

// Put writes token and identity together.
func (s *Store) Put(ctx context.Context, session sdk.Session) error {
	if err := sdk.ValidateSession(session); err != nil {
		return err
	}
	identity, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("redisstore: encode identity: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(), session.Token, s.ttl)
		pipe.Set(ctx, s.identityKey(), identity, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: put session: %w", err)
	}
	return nil
}

// Get returns sdk.ErrNoSession unless both keys are present.
func (s *Store) Get(ctx context.Context) (*sdk.Session, error) {
	values, err := s.client.MGet(ctx, s.tokenKey(), s.identityKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get session: %w", err)
	}

	token, tokenOK := values[0].(string)
	raw, identityOK := values[1].(string)
	if !tokenOK || !identityOK || token == "" {
		return nil, sdk.ErrNoSession
	}

	var identity sdk.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("redisstore: decode identity: %w", err)
	}
	identity.Roles = identity.Roles.Clone()
	return &sdk.Session{Token: token, Identity: &identity}, nil
}

// Clear removes both keys. Clearing an empty store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.tokenKey(), s.identityKey()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: clear session: %w", err)
	}
	return nil
}
