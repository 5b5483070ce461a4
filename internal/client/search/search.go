// Package search rate-limits search-as-you-type queries with a
// trailing-edge debounce and drops stale responses.
package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// DefaultDelay is the quiet period after the last keystroke before a
// search request is issued.
const DefaultDelay = 300 * time.Millisecond

// Debouncer converts a fast-changing query into a rate-limited stream
// of search requests. Only the most recently committed query's result
// is ever applied; an in-flight response for a superseded query is
// discarded when it arrives.
type Debouncer struct {
	api   *api.Client
	log   *zap.Logger
	delay time.Duration
	apply func([]models.User)

	mu    sync.Mutex
	timer *time.Timer
	// gen increments on every query change; a scheduled or in-flight
	// search applies its result only when its generation is current.
	gen uint64
}

// New constructs a Debouncer. apply receives each applied result set
// and is called with nil when the query is cleared; it runs on the
// debouncer's goroutine.
func New(client *api.Client, delay time.Duration, apply func([]models.User), log *zap.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Debouncer{api: client, log: log, delay: delay, apply: apply}
}

// SetQuery commits a new query value. An empty query cancels any
// pending search and clears results immediately without a network
// call; otherwise the pending search is rescheduled after the quiet
// period.
func (d *Debouncer) SetQuery(q string) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if q == "" {
		d.mu.Unlock()
		d.apply(nil)
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(gen, q) })
	d.mu.Unlock()
}

func (d *Debouncer) run(gen uint64, q string) {
	d.mu.Lock()
	current := d.gen == gen
	d.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := d.api.Search(ctx, q)
	if err != nil {
		d.log.Debug("search failed", zap.String("q", q), zap.Error(err))
		return
	}

	d.mu.Lock()
	current = d.gen == gen
	d.mu.Unlock()
	if !current {
		d.log.Debug("discarding stale search result", zap.String("q", q))
		return
	}
	d.apply(users)
}

// Reset cancels any pending search and clears results. Wired to the
// session store so a logout clears the view.
func (d *Debouncer) Reset() {
	d.SetQuery("")
}

// Close stops any pending timer without applying anything.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
