// Package chat maintains the client's view of conversations and the
// currently open chat, reconciling confirmed sends with server state.
//
// Local appends happen only after the server confirms a send, so there
// is never a rollback path. A generation counter guards the active
// chat: history responses and send confirmations that arrive after the
// chat was switched or reset are discarded instead of applied.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// ErrNoActiveChat is returned when a send or block is attempted with
// no chat open.
var ErrNoActiveChat = errors.New("no active chat")

// Synchronizer keeps the conversation list and the open chat's message
// sequence consistent with the server.
type Synchronizer struct {
	api *api.Client
	log *zap.Logger

	mu       sync.Mutex
	selfID   string
	convos   []models.Conversation
	active   *models.User
	messages []models.Message
	// gen increments whenever the active chat changes; stale responses
	// carry an older value and are dropped.
	gen uint64
}

// NewSynchronizer constructs a Synchronizer over the given API client.
func NewSynchronizer(client *api.Client, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{api: client, log: log}
}

// SetSelf records the authenticated user, whose id stamps the sender
// of locally constructed messages.
func (s *Synchronizer) SetSelf(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.selfID = ""
		return
	}
	s.selfID = u.ID
}

// LoadConversations fetches the full conversation list and replaces
// the local copy wholesale. Safe to call after any mutation.
func (s *Synchronizer) LoadConversations(ctx context.Context) error {
	convos, err := s.api.Conversations(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.convos = convos
	s.mu.Unlock()
	return nil
}

// OpenChat selects a counterpart and loads the full message history
// for the pair. If another chat was opened before the history arrived,
// the stale response is discarded.
func (s *Synchronizer) OpenChat(ctx context.Context, user models.User) error {
	s.mu.Lock()
	u := user
	s.active = &u
	s.gen++
	gen := s.gen
	s.messages = nil
	s.mu.Unlock()

	msgs, err := s.api.History(ctx, user.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.messages = msgs
	}
	s.mu.Unlock()
	return nil
}

// SendText sends a text message to the active counterpart. A blank
// message is a no-op: no request is issued and nothing is appended.
// The message is appended locally only after the server confirms it,
// using the server-assigned id and timestamp, and the conversation
// list is reloaded to pick up the new ordering.
func (s *Synchronizer) SendText(ctx context.Context, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveChat
	}
	to := *s.active
	gen := s.gen
	self := s.selfID
	s.mu.Unlock()

	corr := uuid.NewString()
	resp, err := s.api.Send(ctx, api.SendRequest{
		ToIdentifier: to.ID,
		Kind:         models.KindText,
		Text:         text,
	})
	if err != nil {
		s.log.Warn("send failed", zap.String("corr", corr), zap.Error(err))
		return nil, err
	}

	msg := models.Message{
		ID:         resp.ID,
		SenderID:   self,
		ReceiverID: to.ID,
		Kind:       models.KindText,
		Text:       text,
		CreatedAt:  resp.CreatedAt,
	}
	s.confirm(gen, corr, msg)

	if err := s.LoadConversations(ctx); err != nil {
		s.log.Warn("conversation reload after send failed", zap.Error(err))
	}
	return &msg, nil
}

// SendMedia uploads a file and sends a message referencing it. The
// send phase runs only if the upload succeeded; on failure at either
// phase no local state changes.
func (s *Synchronizer) SendMedia(ctx context.Context, filename string, r io.Reader) (*models.Message, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveChat
	}
	to := *s.active
	gen := s.gen
	self := s.selfID
	s.mu.Unlock()

	up, err := s.api.Upload(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	kind := up.Kind
	if kind == "" {
		kind = models.KindImage
	}
	mediaURL := s.api.ResolveURL(up.URL)

	corr := uuid.NewString()
	resp, err := s.api.Send(ctx, api.SendRequest{
		ToIdentifier: to.ID,
		Kind:         kind,
		MediaURL:     mediaURL,
	})
	if err != nil {
		s.log.Warn("media send failed", zap.String("corr", corr), zap.Error(err))
		return nil, err
	}

	msg := models.Message{
		ID:         resp.ID,
		SenderID:   self,
		ReceiverID: to.ID,
		Kind:       kind,
		MediaURL:   mediaURL,
		CreatedAt:  resp.CreatedAt,
	}
	s.confirm(gen, corr, msg)

	if err := s.LoadConversations(ctx); err != nil {
		s.log.Warn("conversation reload after send failed", zap.Error(err))
	}
	return &msg, nil
}

// confirm appends a server-confirmed message unless the chat it was
// sent from has since been switched or reset.
func (s *Synchronizer) confirm(gen uint64, corr string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.log.Debug("send confirmed after chat switch, discarding local append",
			zap.String("corr", corr), zap.String("id", msg.ID))
		return
	}
	s.messages = append(s.messages, msg)
}

// Block blocks the active counterpart. On success the active chat is
// closed and the conversation list reloaded.
func (s *Synchronizer) Block(ctx context.Context) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveChat
	}
	to := *s.active
	s.mu.Unlock()

	if err := s.api.Block(ctx, to.ID); err != nil {
		return err
	}

	s.mu.Lock()
	s.active = nil
	s.messages = nil
	s.gen++
	s.mu.Unlock()

	return s.LoadConversations(ctx)
}

// Unblock unblocks the active counterpart, re-opens the chat with a
// full history refetch, and reloads the conversation list.
func (s *Synchronizer) Unblock(ctx context.Context) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveChat
	}
	to := *s.active
	s.mu.Unlock()

	if err := s.api.Unblock(ctx, to.ID); err != nil {
		return err
	}
	if err := s.OpenChat(ctx, to); err != nil {
		return err
	}
	return s.LoadConversations(ctx)
}

// CloseChat deselects the active counterpart.
func (s *Synchronizer) CloseChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.messages = nil
	s.gen++
}

// Reset drops all per-session state. Wired to the session store so a
// logout clears the view.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfID = ""
	s.convos = nil
	s.active = nil
	s.messages = nil
	s.gen++
}

// StartAutoRefresh periodically re-fetches the conversation list and
// the open chat's history until ctx is cancelled.
func (s *Synchronizer) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.LoadConversations(ctx); err != nil {
					s.log.Debug("conversation refresh failed", zap.Error(err))
					continue
				}
				s.refreshActive(ctx)
			}
		}
	}()
}

func (s *Synchronizer) refreshActive(ctx context.Context) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	u := *s.active
	gen := s.gen
	s.mu.Unlock()

	msgs, err := s.api.History(ctx, u.ID)
	if err != nil {
		s.log.Debug("history refresh failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.gen == gen {
		s.messages = msgs
	}
	s.mu.Unlock()
}

// Conversations returns a copy of the conversation list.
func (s *Synchronizer) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, len(s.convos))
	copy(out, s.convos)
	return out
}

// Active returns a copy of the active counterpart, or nil.
func (s *Synchronizer) Active() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

// Messages returns a copy of the open chat's message sequence.
func (s *Synchronizer) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
