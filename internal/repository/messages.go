package repository

import (
	"context"
	"database/sql"

	"github.com/atinyakov/slashmsg/internal/models"
)

// SQLiteMessageRepository implements message and block persistence over sqlite.
type SQLiteMessageRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewSQLiteMessageRepository creates a repository over the given database handle.
func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{DB: db}
}

// Insert stores one message.
func (r *SQLiteMessageRepository) Insert(ctx context.Context, m models.Message) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, kind, text, media_url, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Kind, m.Text, m.MediaURL, m.CreatedAt,
	)
	return err
}

// AllForUser returns every message the user sent or received, most
// recent first.
func (r *SQLiteMessageRepository) AllForUser(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, kind, text, media_url, created_at
           FROM messages
          WHERE sender_id = ? OR receiver_id = ?
          ORDER BY created_at DESC, rowid DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// Between returns the full history between two users, oldest first.
func (r *SQLiteMessageRepository) Between(ctx context.Context, a, b string) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, kind, text, media_url, created_at
           FROM messages
          WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
          ORDER BY created_at ASC, rowid ASC`,
		a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.Message, error) {
	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Kind, &m.Text, &m.MediaURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Block records that userID blocks blockedID. Blocking twice is a no-op.
func (r *SQLiteMessageRepository) Block(ctx context.Context, userID, blockedID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO blocks (user_id, blocked_id) VALUES (?, ?)`,
		userID, blockedID)
	return err
}

// Unblock removes a block in one direction. Unblocking an unblocked
// pair is a no-op.
func (r *SQLiteMessageRepository) Unblock(ctx context.Context, userID, blockedID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM blocks WHERE user_id = ? AND blocked_id = ?`,
		userID, blockedID)
	return err
}

// BlockedEither reports whether either user blocks the other.
func (r *SQLiteMessageRepository) BlockedEither(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(
            SELECT 1 FROM blocks
             WHERE (user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?))`,
		a, b, b, a,
	).Scan(&exists)
	return exists, err
}
