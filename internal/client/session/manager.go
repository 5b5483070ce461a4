package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// State is the authentication state of the client.
type State int

const (
	// StateUnauthenticated means no valid session exists; only login
	// and signup are available.
	StateUnauthenticated State = iota
	// StateRestoring means a stored credential is being validated at
	// startup.
	StateRestoring
	// StateAuthenticating means a login or signup request is in flight.
	StateAuthenticating
	// StateAuthenticated means a session exists and the identity is known.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

var (
	// ErrMissingFields is returned when a login or signup field is
	// blank after trimming.
	ErrMissingFields = errors.New("all fields are required")
	// ErrUnreachable is returned when the connectivity probe fails
	// before an authentication attempt.
	ErrUnreachable = errors.New("could not reach the server")
)

// Manager owns the session lifecycle: restoring a stored credential at
// startup, login, signup, logout, and the current identity.
type Manager struct {
	api   *api.Client
	store *Store
	log   *zap.Logger

	mu    sync.Mutex
	state State
	role  string
	me    *models.User
}

// NewManager constructs a Manager over the given API client and store.
func NewManager(client *api.Client, store *Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{api: client, store: store, log: log}
}

// Restore validates a previously stored credential against the
// identity endpoint. Without a stored credential it stays
// unauthenticated and makes no network call. A definitive rejection
// clears the stored credential silently; a transport failure keeps it
// and returns the error so the caller may retry later.
func (m *Manager) Restore(ctx context.Context) error {
	sess := m.store.Get()
	if sess == nil {
		m.setState(StateUnauthenticated)
		return nil
	}

	m.setState(StateRestoring)
	me, err := m.api.Me(ctx)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			m.log.Info("stored session rejected, clearing",
				zap.Int("status", apiErr.Status))
			_ = m.store.Clear()
			m.reset()
			return nil
		}
		m.reset()
		return fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	m.me = me
	m.role = roleOrDefault(sess.Role)
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.log.Info("session restored", zap.String("user", me.Username))
	return nil
}

// Login authenticates with a username or phone number. The backend is
// probed first so an unreachable server fails fast with ErrUnreachable
// instead of a raw transport error; transient network failures on the
// auth request itself are retried, rejections are not.
func (m *Manager) Login(ctx context.Context, identifier, password string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || strings.TrimSpace(password) == "" {
		return ErrMissingFields
	}

	return m.authenticate(ctx, func() (*api.AuthResponse, error) {
		return m.api.Login(ctx, identifier, password)
	})
}

// Signup creates an account. All four fields are required.
func (m *Manager) Signup(ctx context.Context, name, username, number, password string) error {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	number = strings.TrimSpace(number)
	if name == "" || username == "" || number == "" || strings.TrimSpace(password) == "" {
		return ErrMissingFields
	}

	return m.authenticate(ctx, func() (*api.AuthResponse, error) {
		return m.api.Signup(ctx, name, username, number, password)
	})
}

func (m *Manager) authenticate(ctx context.Context, op func() (*api.AuthResponse, error)) error {
	m.setState(StateAuthenticating)

	if !m.api.Probe(ctx) {
		m.reset()
		return ErrUnreachable
	}

	resp, err := api.WithRetry(ctx, api.DefaultMaxRetries, op)
	if err != nil {
		m.reset()
		return err
	}

	role := roleOrDefault(resp.Role)
	if err := m.store.Set(models.Session{Token: resp.Token, Role: role}); err != nil {
		m.reset()
		return fmt.Errorf("persist session: %w", err)
	}

	me := resp.User
	m.mu.Lock()
	m.me = &me
	m.role = role
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.log.Info("authenticated", zap.String("user", me.Username), zap.String("role", role))
	return nil
}

// Logout clears the stored credential and identity. Store subscribers
// are notified so dependent components drop their per-session state.
func (m *Manager) Logout() error {
	err := m.store.Clear()
	m.reset()
	m.log.Info("logged out")
	return err
}

// State returns the current authentication state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Me returns a copy of the authenticated identity, or nil.
func (m *Manager) Me() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.me == nil {
		return nil
	}
	cp := *m.me
	return &cp
}

// Role returns the role of the current session, empty when
// unauthenticated.
func (m *Manager) Role() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// IsAdmin reports whether the session routes to the moderation view.
func (m *Manager) IsAdmin() bool {
	return m.Role() == models.RoleAdmin
}

// UpdateProfile applies a full profile edit and refreshes the held
// identity on success only.
func (m *Manager) UpdateProfile(ctx context.Context, name, username, number, bio string) error {
	me, err := m.api.UpdateMe(ctx, map[string]string{
		"name":     name,
		"username": username,
		"number":   number,
		"bio":      bio,
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.me = me
	m.mu.Unlock()
	return nil
}

// UpdateAvatar uploads an image and points the profile at it. Phase
// two runs only when the upload succeeded.
func (m *Manager) UpdateAvatar(ctx context.Context, filename string, r io.Reader) error {
	up, err := m.api.Upload(ctx, filename, r)
	if err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	me, err := m.api.UpdateMe(ctx, map[string]string{
		"avatar_url": m.api.ResolveURL(up.URL),
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.me = me
	m.mu.Unlock()
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.role = ""
	m.me = nil
	m.mu.Unlock()
}

func roleOrDefault(role string) string {
	if strings.TrimSpace(role) == "" {
		return models.RoleUser
	}
	return role
}

// IsUnreachable reports whether err is a connectivity-class failure,
// for which the UI shows a check-your-connection hint instead of the
// server message.
func IsUnreachable(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
