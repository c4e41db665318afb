package sdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PendingMutation is a role replacement queued for one identity.
type PendingMutation interface {
	// Apply sends the mutation unless a newer one for the same identity was queued first,
	// then refreshes the roster.
	Apply(ctx context.Context)
}

// RoleMutator queues role replacements. Queueing never blocks, so a caller can fold its
// local state and queue the result under its own lock.
type RoleMutator interface {
	QueueMutation(id int64, roles RoleSet) PendingMutation
}

// RosterController owns the roster published to the access gate.
//
// Fetches are numbered when issued and a response is applied only when it is newer than
// the last applied one. Mutations for one identity run one at a time; a queued mutation
// that has been superseded before its turn is dropped. Every mutation, sent or dropped,
// successful or not, is followed by a fresh fetch.
type RosterController struct {
	notifier

	store   SessionStore
	service RosterService
	logger  *slog.Logger

	issued atomic.Uint64

	mu          sync.Mutex
	roster      []Identity
	loading     bool
	fetchErr    string
	mutationErr string
	applied     uint64

	queuesMu sync.Mutex
	queues   map[int64]*entryQueue
}

var _ RoleMutator = (*RosterController)(nil)

// NewRosterController builds a controller that is loading until its first fetch settles.
func NewRosterController(store SessionStore, service RosterService, opts ...Option) *RosterController {
	o := buildOptions(opts)
	return &RosterController{
		store:   store,
		service: service,
		logger:  o.logger,
		loading: true,
		queues:  make(map[int64]*entryQueue),
	}
}

// FetchRoster lists the manageable identities and publishes the result.
func (r *RosterController) FetchRoster(ctx context.Context) {
	generation := r.issued.Add(1)
	roster, err := r.service.ListRoster(ctx, r.token(ctx))
	if err != nil {
		r.logger.Error("failed to fetch users", slog.Any("error", err))
	}

	r.mu.Lock()
	r.loading = false
	if generation <= r.applied {
		r.mu.Unlock()
		r.logger.Debug("discarding stale roster response", slog.Uint64("generation", generation))
		r.publish()
		return
	}
	r.applied = generation
	switch {
	case err == nil:
		r.roster = cloneRoster(roster)
		r.fetchErr = ""
	case errors.Is(err, ErrAccessDenied):
		r.fetchErr = MsgAccessDenied
	default:
		r.fetchErr = MsgRosterFetchFailed
	}
	r.mu.Unlock()
	r.publish()
	if err == nil {
		r.pruneQueues(roster)
	}
}

// MutateRoles replaces the role set of identity id and refreshes the roster.
func (r *RosterController) MutateRoles(ctx context.Context, id int64, roles RoleSet) {
	r.QueueMutation(id, roles).Apply(ctx)
}

// QueueMutation records roles as the newest desired role set for id.
func (r *RosterController) QueueMutation(id int64, roles RoleSet) PendingMutation {
	r.queuesMu.Lock()
	q, ok := r.queues[id]
	if !ok {
		q = &entryQueue{slot: make(chan struct{}, 1), abandoned: make(map[uint64]struct{})}
		r.queues[id] = q
	}
	seq := q.claim()
	r.queuesMu.Unlock()

	return &mutation{
		controller: r,
		queue:      q,
		seq:        seq,
		id:         id,
		roles:      roles.Clone(),
	}
}

// Reset forgets the published roster and mutation error. Fetches still in flight are
// discarded when they settle.
func (r *RosterController) Reset() {
	r.mu.Lock()
	r.roster = nil
	r.fetchErr = ""
	r.mutationErr = ""
	r.applied = r.issued.Load()
	r.mu.Unlock()
	r.publish()
}

// Roster returns a copy of the published roster in server order.
func (r *RosterController) Roster() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRoster(r.roster)
}

// Loading is true until the first fetch settles and false forever after.
func (r *RosterController) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err returns the published error message. A fetch error takes precedence over the
// error of the last mutation.
func (r *RosterController) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != "" {
		return r.fetchErr
	}
	return r.mutationErr
}

func (r *RosterController) token(ctx context.Context) string {
	session, err := r.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			r.logger.Warn("read session", slog.Any("error", err))
		}
		return ""
	}
	return session.Token
}

// pruneQueues drops idle queues of identities no longer in the roster.
func (r *RosterController) pruneQueues(roster []Identity) {
	present := make(map[int64]struct{}, len(roster))
	for _, entry := range roster {
		present[entry.ID] = struct{}{}
	}
	r.queuesMu.Lock()
	defer r.queuesMu.Unlock()
	for id, q := range r.queues {
		if _, ok := present[id]; !ok && q.idle() {
			delete(r.queues, id)
		}
	}
}

func (r *RosterController) replaceRoles(ctx context.Context, m *mutation) {
	err := r.service.ReplaceRoles(ctx, r.token(ctx), m.id, m.roles)
	r.mu.Lock()
	if err != nil {
		r.mutationErr = MsgRoleUpdateFailed
	} else {
		r.mutationErr = ""
	}
	r.mu.Unlock()
	if err != nil {
		r.logger.Error("failed to update user roles", slog.Int64("user_id", m.id), slog.Any("error", err))
		r.publish()
	}
}

// entryQueue serializes mutations for one identity.
type entryQueue struct {
	slot chan struct{}

	mu        sync.Mutex
	latest    uint64
	pending   int
	abandoned map[uint64]struct{}
}

func (q *entryQueue) claim() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.latest++
	q.pending++
	return q.latest
}

func (q *entryQueue) superseded(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq < q.latest {
		return true
	}
	clear(q.abandoned)
	return false
}

// abandon withdraws seq so it no longer supersedes older mutations still waiting.
func (q *entryQueue) abandon(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.abandoned[seq] = struct{}{}
	for {
		if _, ok := q.abandoned[q.latest]; !ok {
			return
		}
		delete(q.abandoned, q.latest)
		q.latest--
	}
}

func (q *entryQueue) done() {
	q.mu.Lock()
	q.pending--
	q.mu.Unlock()
}

func (q *entryQueue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending == 0
}

type mutation struct {
	controller *RosterController
	queue      *entryQueue
	seq        uint64
	id         int64
	roles      RoleSet
}

func (m *mutation) Apply(ctx context.Context) {
	// The refetch runs even when ctx was cancelled while waiting.
	defer m.controller.FetchRoster(context.WithoutCancel(ctx))
	defer m.queue.done()

	select {
	case m.queue.slot <- struct{}{}:
	case <-ctx.Done():
		m.queue.abandon(m.seq)
		m.controller.logger.Warn("role update abandoned", slog.Int64("user_id", m.id), slog.Any("error", ctx.Err()))
		return
	}
	defer func() { <-m.queue.slot }()

	if m.queue.superseded(m.seq) {
		m.controller.logger.Debug("skipping superseded role update", slog.Int64("user_id", m.id), slog.Uint64("seq", m.seq))
		return
	}
	m.controller.replaceRoles(ctx, m)
}

func cloneRoster(roster []Identity) []Identity {
	if roster == nil {
		return nil
	}
	out := make([]Identity, len(roster))
	for i, identity := range roster {
		out[i] = identity.Clone()
	}
	return out
}
