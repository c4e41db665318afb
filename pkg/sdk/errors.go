package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession is returned by a SessionStore that holds no session.
	ErrNoSession = errors.New("no session")
	// ErrNetwork indicates that a request to the identity service could not complete.
	ErrNetwork = errors.New("network failure")
	// ErrAccessDenied indicates that the identity service rejected the caller's privileges.
	ErrAccessDenied = errors.New("access denied")
	// ErrValidation indicates malformed input rejected before any request was issued.
	ErrValidation = errors.New("validation failed")
)

// Messages published to the UI surface.
const (
	MsgAccessDenied        = "Access denied. Admin privileges required."
	MsgRosterFetchFailed   = "Failed to fetch users"
	MsgIdentityFetchFailed = "Failed to fetch user data"
	MsgRoleUpdateFailed    = "Failed to update user roles"
	MsgLoginFailed         = "Login failed. Please try again."
)

// APIError is a non-2xx response from the identity service.
type APIError struct {
	StatusCode int
	// Detail is the "detail" field of the error body, when the service sent one.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("identity service returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("identity service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrAccessDenied) match 403 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrAccessDenied && e.StatusCode == http.StatusForbidden
}

// detailOf extracts the server-provided detail from err, if any.
func detailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
