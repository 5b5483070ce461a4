// Package repository provides sqlite persistence for the development backend.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atinyakov/slashmsg/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UserRecord is a full user row, including fields never sent to
// regular clients.
type UserRecord struct {
	models.User
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	LastIP       string
}

// SQLiteUserRepository implements user persistence over sqlite.
type SQLiteUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewSQLiteUserRepository creates a repository over the given database handle.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{DB: db}
}

const userColumns = `id, name, username, number, password_hash, bio, avatar_url, is_admin, is_active, last_ip`

func scanUser(row *sql.Row) (*UserRecord, error) {
	var rec UserRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Username, &rec.Number, &rec.PasswordHash,
		&rec.Bio, &rec.AvatarURL, &rec.IsAdmin, &rec.IsActive, &rec.LastIP)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a new user row.
func (r *SQLiteUserRepository) Create(ctx context.Context, rec UserRecord) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, name, username, number, password_hash, bio, avatar_url, is_admin, is_active, last_ip)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Username, rec.Number, rec.PasswordHash,
		rec.Bio, rec.AvatarURL, rec.IsAdmin, rec.IsActive, rec.LastIP,
	)
	return err
}

// UsernameExists returns true if a user with the given username exists.
func (r *SQLiteUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`,
		username,
	).Scan(&exists)
	return exists, err
}

// ByID fetches a user by id.
func (r *SQLiteUserRepository) ByID(ctx context.Context, id string) (*UserRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ByIdentifier fetches a user by username or phone number.
func (r *SQLiteUserRepository) ByIdentifier(ctx context.Context, identifier string) (*UserRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR number = ?`,
		identifier, identifier)
	return scanUser(row)
}

// UpdateProfile rewrites the mutable profile columns of a user.
func (r *SQLiteUserRepository) UpdateProfile(ctx context.Context, rec UserRecord) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET name = ?, username = ?, number = ?, bio = ?, avatar_url = ? WHERE id = ?`,
		rec.Name, rec.Username, rec.Number, rec.Bio, rec.AvatarURL, rec.ID,
	)
	return err
}

// SetActive flips the moderation flag on an account.
func (r *SQLiteUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// SetLastIP records the address an account last authenticated from.
func (r *SQLiteUserRepository) SetLastIP(ctx context.Context, id, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET last_ip = ? WHERE id = ?`, ip, id)
	return err
}

// All lists every user, newest first by rowid.
func (r *SQLiteUserRepository) All(ctx context.Context) ([]UserRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRecord
	for rows.Next() {
		var rec UserRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Username, &rec.Number, &rec.PasswordHash,
			&rec.Bio, &rec.AvatarURL, &rec.IsAdmin, &rec.IsActive, &rec.LastIP); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Search finds users whose username, name or number contains q,
// excluding the searching user.
func (r *SQLiteUserRepository) Search(ctx context.Context, q, excludeID string) ([]models.User, error) {
	pattern := "%" + q + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, username, number, bio, avatar_url FROM users
          WHERE id != ? AND (username LIKE ? OR name LIKE ? OR number LIKE ?)
          ORDER BY username LIMIT 20`,
		excludeID, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Number, &u.Bio, &u.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
