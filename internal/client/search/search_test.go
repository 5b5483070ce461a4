package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// testDelay keeps the quiet period short so tests run fast; the
// debounce behavior under test is independent of the exact duration.
const testDelay = 100 * time.Millisecond

func newSearchBackend(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.User{{ID: "u1", Username: q}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDebouncerCoalescesKeystrokes(t *testing.T) {
	var requests atomic.Int64
	srv := newSearchBackend(t, &requests)

	applied := make(chan []models.User, 4)
	d := New(api.New(srv.URL, nil, nil), testDelay, func(users []models.User) {
		applied <- users
	}, nil)
	defer d.Close()

	// Three keystrokes inside one quiet period.
	d.SetQuery("a")
	time.Sleep(testDelay / 4)
	d.SetQuery("al")
	time.Sleep(testDelay / 4)
	d.SetQuery("ali")

	select {
	case users := <-applied:
		if len(users) != 1 || users[0].Username != "ali" {
			t.Errorf("expected the final query's result, got %+v", users)
		}
	case <-time.After(5 * testDelay):
		t.Fatal("expected a result to be applied")
	}

	// Let any mistakenly scheduled search fire before counting.
	time.Sleep(3 * testDelay)
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 request, got %d", got)
	}
	select {
	case extra := <-applied:
		t.Errorf("expected no further results, got %+v", extra)
	default:
	}
}

func TestDebouncerClearsEmptyQueryImmediately(t *testing.T) {
	var requests atomic.Int64
	srv := newSearchBackend(t, &requests)

	applied := make(chan []models.User, 2)
	d := New(api.New(srv.URL, nil, nil), testDelay, func(users []models.User) {
		applied <- users
	}, nil)
	defer d.Close()

	d.SetQuery("ali")
	d.SetQuery("")

	select {
	case users := <-applied:
		if users != nil {
			t.Errorf("expected nil result for a cleared query, got %+v", users)
		}
	case <-time.After(testDelay):
		t.Fatal("expected an immediate clear")
	}

	time.Sleep(3 * testDelay)
	if got := requests.Load(); got != 0 {
		t.Errorf("expected the pending search to be cancelled, got %d requests", got)
	}
}

func TestDebouncerDiscardsStaleResponse(t *testing.T) {
	var requests atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query().Get("q")
		if q == "slow" {
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.User{{ID: "u1", Username: q}})
	}))
	t.Cleanup(srv.Close)

	applied := make(chan []models.User, 2)
	d := New(api.New(srv.URL, nil, nil), testDelay, func(users []models.User) {
		applied <- users
	}, nil)
	defer d.Close()

	d.SetQuery("slow")
	// Wait for the slow search to be in flight, then supersede it.
	for requests.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	d.SetQuery("fast")

	select {
	case users := <-applied:
		if len(users) != 1 || users[0].Username != "fast" {
			t.Errorf("expected the fresh query's result, got %+v", users)
		}
	case <-time.After(10 * testDelay):
		t.Fatal("expected the fresh result to be applied")
	}

	close(release)
	time.Sleep(2 * testDelay)
	select {
	case stale := <-applied:
		t.Errorf("expected the stale response to be discarded, got %+v", stale)
	default:
	}
}

func TestResetClearsPendingSearch(t *testing.T) {
	var requests atomic.Int64
	srv := newSearchBackend(t, &requests)

	applied := make(chan []models.User, 2)
	d := New(api.New(srv.URL, nil, nil), testDelay, func(users []models.User) {
		applied <- users
	}, nil)
	defer d.Close()

	d.SetQuery("ali")
	d.Reset()

	select {
	case users := <-applied:
		if users != nil {
			t.Errorf("expected nil on reset, got %+v", users)
		}
	case <-time.After(testDelay):
		t.Fatal("expected reset to apply a clear")
	}

	time.Sleep(3 * testDelay)
	if requests.Load() != 0 {
		t.Errorf("expected no request after reset, got %d", requests.Load())
	}
}
