package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/slashmsg/internal/repository"
	"github.com/atinyakov/slashmsg/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail reports a failure in the backend's error shape: a JSON
// body with a single "detail" field.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps service errors onto HTTP statuses, keeping the
// service's message as the detail for expected failures.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrSuspended):
		writeDetail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRecipientNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBlocked):
		writeDetail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBadMessage):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	default:
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}
