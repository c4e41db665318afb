package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// LoginController submits credentials and establishes the session on success.
type LoginController struct {
	store     SessionStore
	service   LoginService
	navigator Navigator
	logger    *slog.Logger
	validate  *validator.Validate

	mu      sync.Mutex
	loading bool
	err     string
}

// NewLoginController builds a login controller. A nil navigator ignores navigation.
func NewLoginController(store SessionStore, service LoginService, navigator Navigator, opts ...Option) *LoginController {
	o := buildOptions(opts)
	if navigator == nil {
		navigator = noopNavigator{}
	}
	return &LoginController{
		store:     store,
		service:   service,
		navigator: navigator,
		logger:    o.logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Login authenticates input, stores token and identity together, and navigates to the
// admin view. On failure the returned error wraps ErrValidation, ErrNetwork or an
// *APIError, and Err holds the message to display.
func (l *LoginController) Login(ctx context.Context, input LoginInput) (*Session, error) {
	l.mu.Lock()
	l.loading = true
	l.err = ""
	l.mu.Unlock()

	session, err := l.login(ctx, input)

	l.mu.Lock()
	l.loading = false
	if err != nil {
		l.err = LoginMessage(err)
	}
	l.mu.Unlock()

	if err != nil {
		return nil, err
	}
	l.navigator.Navigate(AdminPath)
	return session, nil
}

func (l *LoginController) login(ctx context.Context, input LoginInput) (*Session, error) {
	input.UsernameOrEmail = strings.TrimSpace(input.UsernameOrEmail)
	if err := l.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}

	result, err := l.service.Login(ctx, input)
	if err != nil {
		l.logger.Warn("login failed", slog.String("username_or_email", input.UsernameOrEmail), slog.Any("error", err))
		return nil, err
	}

	user := result.User.Clone()
	session := Session{Token: result.AccessToken, Identity: &user}
	if err := l.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &session, nil
}

// Loading reports whether a login request is in flight.
func (l *LoginController) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the message of the last failed login.
func (l *LoginController) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// LoginMessage maps a login error to the text shown on the login form: the service's
// detail when it sent one, the validation problem for rejected input, a generic fallback
// otherwise.
func LoginMessage(err error) string {
	if detail := detailOf(err); detail != "" {
		return detail
	}
	if errors.Is(err, ErrValidation) {
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	}
	return MsgLoginFailed
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "UsernameOrEmail":
			missing = append(missing, "username or email")
		case "Password":
			missing = append(missing, "password")
		default:
			missing = append(missing, strings.ToLower(fe.Field()))
		}
	}
	return strings.Join(missing, " and ") + " required"
}
