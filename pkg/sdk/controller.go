package sdk

import (
	"log/slog"
	"sync"
)

// Navigation targets.
const (
	LoginPath = "/login"
	AdminPath = "/admin"
)

// Navigator moves the UI to another view after login or logout.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

type options struct {
	logger          *slog.Logger
	requireVerified bool
}

// Option configures controllers and the access gate.
type Option func(*options)

// WithLogger sets the logger used to report failures. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRequireVerifiedIdentity makes the access gate fail closed: the privileged editor is
// only offered once the identity service has confirmed the identity, never on the cached
// snapshot alone.
func WithRequireVerifiedIdentity() Option {
	return func(o *options) {
		o.requireVerified = true
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// notifier fans out change notifications to subscribers.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe registers fn to run after every published change and returns a function that
// removes it. fn runs on the goroutine that published the change.
func (n *notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) publish() {
	n.mu.Lock()
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
