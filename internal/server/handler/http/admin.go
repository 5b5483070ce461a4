package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/slashmsg/internal/middleware"
	"github.com/atinyakov/slashmsg/internal/models"
	"github.com/atinyakov/slashmsg/internal/repository"
)

// AdminService defines the interface for moderation operations
// required by the HTTP handlers.
type AdminService interface {
	Users(ctx context.Context) ([]models.AdminUser, error)
	Logs(ctx context.Context) ([]models.AdminLogEntry, error)
	Suspend(ctx context.Context, adminUsername, targetID string) error
	Activate(ctx context.Context, adminUsername, targetID string) error
}

// AdminHandler handles the moderation endpoints. Every route requires
// an authenticated admin account.
type AdminHandler struct {
	// Admin performs the underlying operations.
	Admin AdminService
}

// requireAdmin rejects non-admin callers with 403.
func requireAdmin(w http.ResponseWriter, r *http.Request) *repository.UserRecord {
	rec := middleware.UserFromContext(r.Context())
	if rec == nil || !rec.IsAdmin {
		writeDetail(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return rec
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	users, err := h.Admin.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.AdminUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Logs handles GET /admin/logs.
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	logs, err := h.Admin.Logs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.AdminLogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Suspend handles POST /admin/suspend/{userID}.
func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	rec := requireAdmin(w, r)
	if rec == nil {
		return
	}
	if err := h.Admin.Suspend(r.Context(), rec.Username, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

// Activate handles POST /admin/activate/{userID}.
func (h *AdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	rec := requireAdmin(w, r)
	if rec == nil {
		return
	}
	if err := h.Admin.Activate(r.Context(), rec.Username, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}
