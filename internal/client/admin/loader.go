// Package admin loads the moderation view: user and activity-log
// listings, plus suspend/activate actions.
package admin

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/models"
)

// Loader fetches user and log listings for administrators. The two
// listings load in parallel and apply independently: a failure on one
// never blocks the other from rendering.
type Loader struct {
	api *api.Client
	log *zap.Logger

	mu    sync.Mutex
	users []models.AdminUser
	logs  []models.AdminLogEntry
}

// NewLoader constructs a Loader over the given API client.
func NewLoader(client *api.Client, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{api: client, log: log}
}

// Load fetches both listings together. Each successful response is
// applied regardless of the other; the returned error combines
// whichever fetches failed.
func (l *Loader) Load(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		usersErr error
		logsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, err := l.api.AdminUsers(ctx)
		if err != nil {
			usersErr = err
			return
		}
		l.mu.Lock()
		l.users = users
		l.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		logs, err := l.api.AdminLogs(ctx)
		if err != nil {
			logsErr = err
			return
		}
		l.mu.Lock()
		l.logs = logs
		l.mu.Unlock()
	}()
	wg.Wait()

	return multierr.Append(usersErr, logsErr)
}

// Suspend deactivates an account and reloads both listings on success.
func (l *Loader) Suspend(ctx context.Context, userID string) error {
	if err := l.api.Suspend(ctx, userID); err != nil {
		return err
	}
	l.log.Info("user suspended", zap.String("id", userID))
	return l.Load(ctx)
}

// Activate reactivates an account and reloads both listings on success.
func (l *Loader) Activate(ctx context.Context, userID string) error {
	if err := l.api.Activate(ctx, userID); err != nil {
		return err
	}
	l.log.Info("user activated", zap.String("id", userID))
	return l.Load(ctx)
}

// Users returns a copy of the loaded user listing.
func (l *Loader) Users() []models.AdminUser {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AdminUser, len(l.users))
	copy(out, l.users)
	return out
}

// Logs returns a copy of the loaded activity log.
func (l *Loader) Logs() []models.AdminLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AdminLogEntry, len(l.logs))
	copy(out, l.logs)
	return out
}
