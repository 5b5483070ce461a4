package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/slashmsg/internal/models"
)

// AdminLogRepository defines the moderation-log persistence operations
// required by the admin service.
type AdminLogRepository interface {
	InsertLog(ctx context.Context, e models.AdminLogEntry) error
	Logs(ctx context.Context) ([]models.AdminLogEntry, error)
}

// AdminService implements the moderation operations.
type AdminService struct {
	users UserRepository
	logs  AdminLogRepository
}

// NewAdminService constructs an AdminService over the given repositories.
func NewAdminService(users UserRepository, logs AdminLogRepository) *AdminService {
	return &AdminService{users: users, logs: logs}
}

// Users lists every account for the moderation view.
func (s *AdminService) Users(ctx context.Context) ([]models.AdminUser, error) {
	recs, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AdminUser, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.AdminUser{
			ID:       rec.ID,
			Name:     rec.Name,
			Username: rec.Username,
			Number:   rec.Number,
			IsActive: rec.IsActive,
			IsAdmin:  rec.IsAdmin,
			LastIP:   rec.LastIP,
		})
	}
	return out, nil
}

// Logs lists recorded moderation actions.
func (s *AdminService) Logs(ctx context.Context) ([]models.AdminLogEntry, error) {
	return s.logs.Logs(ctx)
}

// Suspend deactivates an account and records the action.
func (s *AdminService) Suspend(ctx context.Context, adminUsername, targetID string) error {
	if err := s.users.SetActive(ctx, targetID, false); err != nil {
		return err
	}
	return s.record(ctx, "suspend", adminUsername, targetID)
}

// Activate reactivates an account and records the action.
func (s *AdminService) Activate(ctx context.Context, adminUsername, targetID string) error {
	if err := s.users.SetActive(ctx, targetID, true); err != nil {
		return err
	}
	return s.record(ctx, "activate", adminUsername, targetID)
}

func (s *AdminService) record(ctx context.Context, action, adminUsername, targetID string) error {
	return s.logs.InsertLog(ctx, models.AdminLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		TargetID:  targetID,
		Details:   "by " + adminUsername,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
