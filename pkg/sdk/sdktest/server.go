// Package sdktest provides an in-process identity service and shared SessionStore tests.
package sdktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

// RoleUpdate records one accepted role replacement.
type RoleUpdate struct {
	ID    int64
	Roles []string
}

// Server is a fake identity service implementing the login, identity and roster endpoints.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       []sdk.Identity
	passwords   map[int64]string
	tokens      map[string]int64
	roleUpdates []RoleUpdate
	hits        map[string]int
}

// NewServer starts a fake identity service that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		passwords: make(map[int64]string),
		tokens:    make(map[string]int64),
		hits:      make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.count)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/users/me", s.handleMe)
	r.Get("/admin/users", s.handleListUsers)
	r.Post("/admin/users/{id}/roles", s.handleReplaceRoles)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers identity with password and returns a token already bound to it.
func (s *Server) AddUser(identity sdk.Identity, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, identity.Clone())
	s.passwords[identity.ID] = password
	token := uuid.NewString()
	s.tokens[token] = identity.ID
	return token
}

// RoleUpdates returns the accepted role replacements in arrival order.
func (s *Server) RoleUpdates() []RoleUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RoleUpdate, len(s.roleUpdates))
	copy(out, s.roleUpdates)
	return out
}

// Hits returns how many requests reached "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// User returns the service's current record for id.
func (s *Server) User(id int64) (sdk.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.Clone(), true
		}
	}
	return sdk.Identity{}, false
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimSuffix(r.URL.Path, "/")
		s.mu.Lock()
		s.hits[route]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input sdk.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if input.UsernameOrEmail != u.Username && input.UsernameOrEmail != u.Email {
			continue
		}
		if s.passwords[u.ID] != input.Password {
			break
		}
		token := uuid.NewString()
		s.tokens[token] = u.ID
		writeJSON(w, http.StatusOK, sdk.LoginResult{AccessToken: token, TokenType: "bearer", User: u.Clone()})
		return
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	s.mu.Lock()
	users := make([]sdk.Identity, len(s.users))
	for i, u := range s.users {
		users[i] = u.Clone()
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleReplaceRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}
	var roles []string
	if err := json.NewDecoder(r.Body).Decode(&roles); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid role list")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Roles = sdk.RoleSet(roles).Clone()
			s.roleUpdates = append(s.roleUpdates, RoleUpdate{ID: id, Roles: roles})
			writeJSON(w, http.StatusOK, map[string]string{"message": "Roles updated"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (s *Server) authenticate(r *http.Request) (sdk.Identity, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return sdk.Identity{}, false
	}
	s.mu.Lock()
	id, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		return sdk.Identity{}, false
	}
	return s.User(id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
