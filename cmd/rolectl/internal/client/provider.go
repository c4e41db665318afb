package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/auth"
	"github.com/terraconstructs/rolegate/internal/telemetry"
	"github.com/terraconstructs/rolegate/pkg/sdk"
	"github.com/terraconstructs/rolegate/pkg/sdk/redisstore"
)

// Options configures a Provider.
type Options struct {
	ServerURL      string
	SessionBackend string // file, redis
	RedisAddr      string
	// SessionDir overrides ~/.rolegate for the file backend.
	SessionDir string
	Logger     *slog.Logger
}

// Provider lazily builds the session store, SDK client and controllers shared by one
// rolectl invocation.
type Provider struct {
	opts Options

	storeOnce sync.Once
	store     sdk.SessionStore
	storeErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
}

// NewProvider constructs a new Provider.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{opts: opts}
}

// ServerURL returns the identity service address.
func (p *Provider) ServerURL() string {
	return p.opts.ServerURL
}

// SessionStore returns the store selected by the session backend.
func (p *Provider) SessionStore(ctx context.Context) (sdk.SessionStore, error) {
	p.storeOnce.Do(func() {
		switch p.opts.SessionBackend {
		case "redis":
			p.store, p.storeErr = redisstore.Dial(ctx, p.opts.RedisAddr)
		case "", "file":
			if p.opts.SessionDir != "" {
				p.store, p.storeErr = auth.NewFileStoreAt(p.opts.SessionDir)
			} else {
				p.store, p.storeErr = auth.NewFileStore()
			}
		default:
			p.storeErr = fmt.Errorf("unknown session backend %q", p.opts.SessionBackend)
		}
		if p.storeErr != nil {
			p.storeErr = fmt.Errorf("failed to open session store: %w", p.storeErr)
		}
	})
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// SDKClient returns the identity service client. Call metrics are recorded on the global
// meter provider; the client works without them when the instruments cannot be created.
func (p *Provider) SDKClient() *sdk.Client {
	p.sdkOnce.Do(func() {
		var opts []sdk.ClientOption
		metrics, err := telemetry.NewClientMetrics()
		if err != nil {
			p.opts.Logger.Warn("client metrics disabled", slog.Any("error", err))
		} else {
			opts = append(opts, sdk.WithMetrics(metrics))
		}
		p.sdkClient = sdk.NewClient(p.opts.ServerURL, opts...)
	})
	return p.sdkClient
}

// LoginController builds a login controller over the session store.
func (p *Provider) LoginController(ctx context.Context, navigator sdk.Navigator) (*sdk.LoginController, error) {
	store, err := p.SessionStore(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewLoginController(store, p.SDKClient(), navigator, sdk.WithLogger(p.opts.Logger)), nil
}

// AccessGate builds an access gate over the session store.
func (p *Provider) AccessGate(ctx context.Context, navigator sdk.Navigator, opts ...sdk.Option) (*sdk.AccessGate, error) {
	store, err := p.SessionStore(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]sdk.Option{sdk.WithLogger(p.opts.Logger)}, opts...)
	return sdk.NewAccessGate(store, p.SDKClient(), navigator, opts...), nil
}

// Close releases the session store when it holds a connection.
func (p *Provider) Close() error {
	if closer, ok := p.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
