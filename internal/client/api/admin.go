package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/atinyakov/slashmsg/internal/models"
)

// AdminUsers lists all accounts for the moderation view.
func (c *Client) AdminUsers(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminLogs lists recorded moderation actions.
func (c *Client) AdminLogs(ctx context.Context) ([]models.AdminLogEntry, error) {
	var logs []models.AdminLogEntry
	if err := c.doJSON(ctx, http.MethodGet, "/admin/logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Suspend deactivates the given account.
func (c *Client) Suspend(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/suspend/"+url.PathEscape(userID), nil, nil)
}

// Activate reactivates the given account.
func (c *Client) Activate(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/activate/"+url.PathEscape(userID), nil, nil)
}
