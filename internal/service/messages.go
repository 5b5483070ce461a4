package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/slashmsg/internal/models"
	"github.com/atinyakov/slashmsg/internal/repository"
)

var (
	// ErrRecipientNotFound is returned when a send targets an unknown user.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrBlocked is returned when either side of a pair blocks the other.
	ErrBlocked = errors.New("messaging is blocked between these users")
	// ErrBadMessage is returned for a send whose payload does not match
	// its kind.
	ErrBadMessage = errors.New("message payload does not match kind")
)

// MessageRepository defines the message and block persistence
// operations required by the message service.
type MessageRepository interface {
	Insert(ctx context.Context, m models.Message) error
	AllForUser(ctx context.Context, userID string) ([]models.Message, error)
	Between(ctx context.Context, a, b string) ([]models.Message, error)
	Block(ctx context.Context, userID, blockedID string) error
	Unblock(ctx context.Context, userID, blockedID string) error
	BlockedEither(ctx context.Context, a, b string) (bool, error)
}

// MessageService implements conversation and messaging business logic.
type MessageService struct {
	msgs  MessageRepository
	users UserRepository
}

// NewMessageService constructs a MessageService over the given repositories.
func NewMessageService(msgs MessageRepository, users UserRepository) *MessageService {
	return &MessageService{msgs: msgs, users: users}
}

// Send stores one message from sender to the user named by
// toIdentifier (an id, username, or phone number). Sends are rejected
// when either side blocks the other.
func (s *MessageService) Send(ctx context.Context, senderID, toIdentifier, kind, text, mediaURL string) (*models.Message, error) {
	if kind == models.KindText {
		if strings.TrimSpace(text) == "" {
			return nil, ErrBadMessage
		}
	} else if mediaURL == "" {
		return nil, ErrBadMessage
	}

	rcpt, err := s.users.ByID(ctx, toIdentifier)
	if errors.Is(err, repository.ErrNotFound) {
		rcpt, err = s.users.ByIdentifier(ctx, toIdentifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}

	blocked, err := s.msgs.BlockedEither(ctx, senderID, rcpt.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	m := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: rcpt.ID,
		Kind:       kind,
		Text:       text,
		MediaURL:   mediaURL,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Conversations builds the rolling conversation list: one entry per
// counterpart, carrying the latest message, most recent first.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	msgs, err := s.msgs.AllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := []models.Conversation{}
	for _, m := range msgs {
		otherID := m.SenderID
		if otherID == userID {
			otherID = m.ReceiverID
		}
		if seen[otherID] {
			continue
		}
		seen[otherID] = true

		rec, err := s.users.ByID(ctx, otherID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.Conversation{Other: rec.User, Last: m})
	}
	return out, nil
}

// History returns the full message history between two users, oldest
// first.
func (s *MessageService) History(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	return s.msgs.Between(ctx, userID, otherID)
}

// Search finds users matching the query, excluding the searcher.
func (s *MessageService) Search(ctx context.Context, q, selfID string) ([]models.User, error) {
	if strings.TrimSpace(q) == "" {
		return []models.User{}, nil
	}
	return s.users.Search(ctx, q, selfID)
}

// Block records a block of otherID by userID.
func (s *MessageService) Block(ctx context.Context, userID, otherID string) error {
	return s.msgs.Block(ctx, userID, otherID)
}

// Unblock removes a block of otherID by userID.
func (s *MessageService) Unblock(ctx context.Context, userID, otherID string) error {
	return s.msgs.Unblock(ctx, userID, otherID)
}
