package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// newBackend runs a fake backend whose /ping is healthy and whose other
// routes are handled by handler. requests counts non-ping requests.
func newBackend(t *testing.T, requests *atomic.Int64, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if requests != nil {
			requests.Add(1)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, baseURL string) (*Manager, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	client := api.New(baseURL, store, nil)
	return NewManager(client, store, nil), store
}

func TestRestoreWithoutCredential(t *testing.T) {
	var requests atomic.Int64
	srv := newBackend(t, &requests, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mgr, _ := newManager(t, srv.URL)
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mgr.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", mgr.State())
	}
	if requests.Load() != 0 {
		t.Errorf("expected no network calls without a credential, got %d", requests.Load())
	}
}

func TestRestoreValidCredential(t *testing.T) {
	srv := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("expected /me, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected stored token on restore, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","name":"Alice","username":"alice","number":"123"}`))
	})

	mgr, store := newManager(t, srv.URL)
	if err := store.Set(models.Session{Token: "tok-1", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("cannot seed session: %v", err)
	}

	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mgr.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %v", mgr.State())
	}
	if !mgr.IsAdmin() {
		t.Error("expected stored admin role to survive restore")
	}
	me := mgr.Me()
	if me == nil || me.Username != "alice" {
		t.Errorf("expected identity alice, got %+v", me)
	}
}

func TestRestoreRejectedCredentialIsClearedSilently(t *testing.T) {
	srv := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid token"}`))
	})

	mgr, store := newManager(t, srv.URL)
	if err := store.Set(models.Session{Token: "stale", Role: models.RoleUser}); err != nil {
		t.Fatalf("cannot seed session: %v", err)
	}

	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("expected a rejected credential to restore silently, got %v", err)
	}
	if mgr.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", mgr.State())
	}
	if store.Get() != nil {
		t.Error("expected rejected credential to be cleared from the store")
	}
}

func TestRestoreKeepsCredentialOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	mgr, store := newManager(t, srv.URL)
	if err := store.Set(models.Session{Token: "tok-1", Role: models.RoleUser}); err != nil {
		t.Fatalf("cannot seed session: %v", err)
	}

	if err := mgr.Restore(context.Background()); err == nil {
		t.Fatal("expected an error when the server is unreachable")
	}
	if store.Get() == nil {
		t.Error("expected credential to survive a transport failure")
	}
	if mgr.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", mgr.State())
	}
}

func TestLoginRequiresAllFields(t *testing.T) {
	var requests atomic.Int64
	srv := newBackend(t, &requests, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mgr, _ := newManager(t, srv.URL)
	if err := mgr.Login(context.Background(), "  ", "secret"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}
	if err := mgr.Login(context.Background(), "alice", ""); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}
	if err := mgr.Signup(context.Background(), "Alice", "", "123", "secret"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}
	if requests.Load() != 0 {
		t.Errorf("expected no requests for invalid input, got %d", requests.Load())
	}
}

func TestLoginFailsFastWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	mgr, _ := newManager(t, srv.URL)
	err := mgr.Login(context.Background(), "alice", "secret")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !IsUnreachable(err) {
		t.Error("expected IsUnreachable to report a connectivity failure")
	}
	if mgr.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", mgr.State())
	}
}

func TestLoginRejectionIsNotRetried(t *testing.T) {
	var requests atomic.Int64
	srv := newBackend(t, &requests, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid credentials"}`))
	})

	mgr, store := newManager(t, srv.URL)
	err := mgr.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if IsUnreachable(err) {
		t.Error("a rejection must not read as a connectivity failure")
	}
	if requests.Load() != 1 {
		t.Errorf("expected exactly 1 auth request, got %d", requests.Load())
	}
	if store.Get() != nil {
		t.Error("expected no session after a rejected login")
	}
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	srv := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-9","role":"","user":{"id":"u1","name":"Alice","username":"alice","number":"123"}}`))
	})

	mgr, store := newManager(t, srv.URL)
	if err := mgr.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mgr.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %v", mgr.State())
	}

	sess := store.Get()
	if sess == nil || sess.Token != "tok-9" {
		t.Fatalf("expected persisted token tok-9, got %+v", sess)
	}
	// A blank role from the server defaults to the regular user role.
	if sess.Role != models.RoleUser {
		t.Errorf("expected default role user, got %q", sess.Role)
	}
	if mgr.IsAdmin() {
		t.Error("expected a regular session")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	srv := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-1","role":"user","user":{"id":"u1","name":"Alice","username":"alice","number":"123"}}`))
	})

	mgr, store := newManager(t, srv.URL)
	if err := mgr.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var notified bool
	store.Subscribe(func(sess *models.Session) {
		if sess == nil {
			notified = true
		}
	})

	if err := mgr.Logout(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mgr.State() != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", mgr.State())
	}
	if mgr.Me() != nil {
		t.Error("expected identity to be dropped on logout")
	}
	if store.Get() != nil {
		t.Error("expected stored session to be cleared")
	}
	if !notified {
		t.Error("expected subscribers to see the logout")
	}
}
