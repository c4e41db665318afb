package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/terraconstructs/rolegate/internal/telemetry"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the identity service address used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// LoginService authenticates credentials against the identity service.
type LoginService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}

// IdentityService resolves the identity owning a token.
type IdentityService interface {
	CurrentIdentity(ctx context.Context, token string) (*Identity, error)
}

// RosterService lists manageable identities and replaces their role sets.
type RosterService interface {
	ListRoster(ctx context.Context, token string) ([]Identity, error)
	ReplaceRoles(ctx context.Context, token string, id int64, roles RoleSet) error
}

// Service is everything the access gate needs from the identity service.
type Service interface {
	IdentityService
	RosterService
}

// LoginInput is the credential pair submitted by the login form.
type LoginInput struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// LoginResult is the identity service's answer to a successful login.
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type,omitempty"`
	User        Identity `json:"user"`
}

// Client talks to the identity service over HTTP+JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *telemetry.ClientMetrics
}

var (
	_ LoginService = (*Client)(nil)
	_ Service      = (*Client)(nil)
)

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Metrics    *telemetry.ClientMetrics
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for identity service calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithMetrics records every call on the given instruments.
func WithMetrics(metrics *telemetry.ClientMetrics) ClientOption {
	return func(opts *ClientOptions) {
		opts.Metrics = metrics
	}
}

// NewClient creates a client for the identity service at baseURL.
// http.DefaultClient is used when no client is supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
	}
}

// BaseURL returns the identity service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token and the caller's identity.
func (c *Client) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	var result LoginResult
	if err := c.do(ctx, "login", "", http.MethodPost, "/auth/login", input, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &result, nil
}

// CurrentIdentity fetches the identity that owns token. An empty token is still sent;
// the service decides whether the caller is authenticated.
func (c *Client) CurrentIdentity(ctx context.Context, token string) (*Identity, error) {
	var identity Identity
	if err := c.do(ctx, "current_identity", token, http.MethodGet, "/users/me", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// ListRoster returns every identity the caller may manage, in server order.
func (c *Client) ListRoster(ctx context.Context, token string) ([]Identity, error) {
	var roster []Identity
	if err := c.do(ctx, "list_roster", token, http.MethodGet, "/admin/users", nil, &roster); err != nil {
		return nil, err
	}
	if roster == nil {
		roster = []Identity{}
	}
	return roster, nil
}

// ReplaceRoles replaces the full role set of identity id.
func (c *Client) ReplaceRoles(ctx context.Context, token string, id int64, roles RoleSet) error {
	path := "/admin/users/" + strconv.FormatInt(id, 10) + "/roles"
	return c.do(ctx, "replace_roles", token, http.MethodPost, path, roles.Clone(), nil)
}

// authorized returns an http.Client that sends token as a bearer credential.
func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	if token == "" {
		return c.httpClient
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
	return oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), source)
}

func (c *Client) do(ctx context.Context, operation, token, method, path string, body, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.authorized(ctx, token).Do(req)
	if err != nil {
		c.metrics.RecordRequest(ctx, operation, 0, time.Since(start))
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(ctx, operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

// decodeAPIError reads the service's {"detail": ...} body. Detail may be a string or a
// structured value; structured values are kept as raw JSON text.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Detail = detail
	} else if string(payload.Detail) != "null" {
		apiErr.Detail = string(payload.Detail)
	}
	return apiErr
}
