// Package session owns the credential lifecycle of the client: the
// durable token/role store and the authentication state machine built
// on top of it.
package session

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/atinyakov/slashmsg/internal/models"
)

// Store persists the current session in a single JSON file and lets
// dependent components subscribe to session changes, so a logout
// resets them without tearing the process down.
type Store struct {
	path string

	mu   sync.Mutex
	cur  *models.Session
	subs []func(*models.Session)
}

// NewStore creates a Store backed by the given file path. Call Load to
// pick up a previously persisted session.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted session, if any. A missing file is not an
// error; it simply means no stored credential.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var sess models.Session
	if err := json.NewDecoder(f).Decode(&sess); err != nil {
		return err
	}

	s.mu.Lock()
	if sess.Token != "" {
		s.cur = &sess
	}
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current session, or nil when none exists.
func (s *Store) Get() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	cp := *s.cur
	return &cp
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// Set persists the session and notifies subscribers.
func (s *Store) Set(sess models.Session) error {
	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(&sess); err != nil {
		return err
	}

	s.notify()
	return nil
}

// Clear removes the persisted session and notifies subscribers with a
// nil session.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	s.notify()
	return nil
}

// Subscribe registers fn to be called after every Set and Clear with
// the new session (nil on Clear). Callbacks run on the mutating
// goroutine and must not call Set or Clear themselves.
func (s *Store) Subscribe(fn func(*models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(*models.Session), len(s.subs))
	copy(subs, s.subs)
	cur := s.cur
	var cp *models.Session
	if cur != nil {
		c := *cur
		cp = &c
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(cp)
	}
}
