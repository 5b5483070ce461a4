// Package http provides the HTTP handlers of the development backend,
// mirroring the REST surface the messenger client consumes.
package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/middleware"
	"github.com/atinyakov/slashmsg/internal/models"
	"github.com/atinyakov/slashmsg/internal/service"
)

// AuthService defines the interface for authentication and identity
// operations required by the HTTP handlers.
type AuthService interface {
	// Signup creates an account and issues a bearer token.
	Signup(ctx context.Context, name, username, number, password, ip string) (*service.Credentials, error)
	// Login authenticates by username or phone number.
	Login(ctx context.Context, identifier, password, ip string) (*service.Credentials, error)
	// UpdateProfile applies a partial profile edit.
	UpdateProfile(ctx context.Context, userID string, patch service.ProfilePatch) (*models.User, error)
}

// AuthHandler handles liveness, authentication, and identity requests.
type AuthHandler struct {
	// AuthService performs the underlying operations.
	AuthService AuthService
	// Log is the structured logger for auth events.
	Log *zap.Logger
}

// Ping handles GET /ping, the liveness probe the client uses to decide
// whether the backend is reachable.
func (h *AuthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SignupRequest represents the JSON payload for account creation.
type SignupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Number   string `json:"number"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup. All four fields are required.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Number) == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "all fields are required")
		return
	}

	creds, err := h.AuthService.Signup(r.Context(),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Username),
		strings.TrimSpace(req.Number), req.Password, remoteIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.Log.Info("account created", zap.String("username", creds.User.Username))
	writeCredentials(w, creds)
}

// LoginRequest represents the JSON payload for authentication.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	creds, err := h.AuthService.Login(r.Context(), strings.TrimSpace(req.Identifier), req.Password, remoteIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCredentials(w, creds)
}

// Me handles GET /me, returning the authenticated identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, rec.User)
}

// UpdateMe handles PATCH /me: a partial profile update returning the
// updated identity.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())

	var patch service.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}

	me, err := h.AuthService.UpdateProfile(r.Context(), rec.ID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func writeCredentials(w http.ResponseWriter, creds *service.Credentials) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token": creds.Token,
		"role":  creds.Role,
		"user":  creds.User,
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
