package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/slashmsg/internal/middleware"
	"github.com/atinyakov/slashmsg/internal/models"
)

// MessageService defines the interface for messaging operations
// required by the HTTP handlers.
type MessageService interface {
	Send(ctx context.Context, senderID, toIdentifier, kind, text, mediaURL string) (*models.Message, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
	History(ctx context.Context, userID, otherID string) ([]models.Message, error)
	Search(ctx context.Context, q, selfID string) ([]models.User, error)
	Block(ctx context.Context, userID, otherID string) error
	Unblock(ctx context.Context, userID, otherID string) error
}

// MessagesHandler handles conversation, messaging, search, and block
// requests.
type MessagesHandler struct {
	// Messages performs the underlying operations.
	Messages MessageService
}

// Conversations handles GET /messages/conversations.
func (h *MessagesHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	convos, err := h.Messages.Conversations(r.Context(), rec.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if convos == nil {
		convos = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convos)
}

// History handles GET /messages/with/{userID}, returning the full
// history between the caller and the named user.
func (h *MessagesHandler) History(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	other := chi.URLParam(r, "userID")

	msgs, err := h.Messages.History(r.Context(), rec.ID, other)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// SendMessageRequest represents the JSON payload for sending a message.
type SendMessageRequest struct {
	ToIdentifier string `json:"to_identifier"`
	Kind         string `json:"kind"`
	Text         string `json:"text"`
	MediaURL     string `json:"media_url"`
}

// Send handles POST /messages/send, returning the server-assigned id
// and timestamp.
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}

	msg, err := h.Messages.Send(r.Context(), rec.ID, req.ToIdentifier, req.Kind, req.Text, req.MediaURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":         msg.ID,
		"created_at": msg.CreatedAt,
	})
}

// Search handles GET /users/search?q=.
func (h *MessagesHandler) Search(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	users, err := h.Messages.Search(r.Context(), r.URL.Query().Get("q"), rec.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Block handles POST /block/{userID}.
func (h *MessagesHandler) Block(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	if err := h.Messages.Block(r.Context(), rec.ID, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

// Unblock handles DELETE /block/{userID}.
func (h *MessagesHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	rec := middleware.UserFromContext(r.Context())
	if err := h.Messages.Unblock(r.Context(), rec.ID, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}
