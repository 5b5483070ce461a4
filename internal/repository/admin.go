package repository

import (
	"context"
	"database/sql"

	"github.com/atinyakov/slashmsg/internal/models"
)

// SQLiteAdminRepository persists bearer tokens and moderation logs.
type SQLiteAdminRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewSQLiteAdminRepository creates a repository over the given database handle.
func NewSQLiteAdminRepository(db *sql.DB) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{DB: db}
}

// IssueToken stores a bearer token for a user.
func (r *SQLiteAdminRepository) IssueToken(ctx context.Context, token, userID, createdAt string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, createdAt)
	return err
}

// UserIDByToken resolves a bearer token to the owning user id.
func (r *SQLiteAdminRepository) UserIDByToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM tokens WHERE token = ?`, token).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return userID, err
}

// InsertLog records one moderation action.
func (r *SQLiteAdminRepository) InsertLog(ctx context.Context, e models.AdminLogEntry) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO admin_logs (id, action, target_id, details, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.TargetID, e.Details, e.CreatedAt)
	return err
}

// Logs lists recorded moderation actions, most recent first.
func (r *SQLiteAdminRepository) Logs(ctx context.Context) ([]models.AdminLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, action, target_id, details, created_at
           FROM admin_logs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AdminLogEntry
	for rows.Next() {
		var e models.AdminLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.TargetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
