// Package service provides the business logic of the development
// backend, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/slashmsg/internal/models"
	"github.com/atinyakov/slashmsg/internal/repository"
)

var (
	// ErrUsernameTaken is returned when a signup reuses a username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for a bad identifier/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSuspended is returned when a suspended account authenticates.
	ErrSuspended = errors.New("account is suspended")
	// ErrUnauthorized is returned for a missing or unknown bearer token.
	ErrUnauthorized = errors.New("invalid or expired token")
)

// UserRepository defines the user persistence operations required by
// the services.
type UserRepository interface {
	Create(ctx context.Context, rec repository.UserRecord) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	ByID(ctx context.Context, id string) (*repository.UserRecord, error)
	ByIdentifier(ctx context.Context, identifier string) (*repository.UserRecord, error)
	UpdateProfile(ctx context.Context, rec repository.UserRecord) error
	SetActive(ctx context.Context, id string, active bool) error
	SetLastIP(ctx context.Context, id, ip string) error
	All(ctx context.Context) ([]repository.UserRecord, error)
	Search(ctx context.Context, q, excludeID string) ([]models.User, error)
}

// TokenRepository defines the bearer-token persistence operations
// required by the auth service.
type TokenRepository interface {
	IssueToken(ctx context.Context, token, userID, createdAt string) error
	UserIDByToken(ctx context.Context, token string) (string, error)
}

// Credentials is the result of a successful signup or login.
type Credentials struct {
	Token string
	Role  string
	User  models.User
}

// AuthService implements account creation and authentication.
type AuthService struct {
	users  UserRepository
	tokens TokenRepository
}

// NewAuthService constructs an AuthService over the given repositories.
func NewAuthService(users UserRepository, tokens TokenRepository) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Signup creates a new account and issues a bearer token for it.
func (s *AuthService) Signup(ctx context.Context, name, username, number, password, ip string) (*Credentials, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := repository.UserRecord{
		User: models.User{
			ID:       uuid.NewString(),
			Name:     name,
			Username: username,
			Number:   number,
		},
		PasswordHash: string(hash),
		IsActive:     true,
		LastIP:       ip,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		return nil, err
	}
	return s.issue(ctx, &rec)
}

// Login authenticates by username or phone number.
func (s *AuthService) Login(ctx context.Context, identifier, password, ip string) (*Credentials, error) {
	rec, err := s.users.ByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !rec.IsActive {
		return nil, ErrSuspended
	}
	if ip != "" {
		if err := s.users.SetLastIP(ctx, rec.ID, ip); err != nil {
			return nil, err
		}
	}
	return s.issue(ctx, rec)
}

func (s *AuthService) issue(ctx context.Context, rec *repository.UserRecord) (*Credentials, error) {
	token := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.tokens.IssueToken(ctx, token, rec.ID, now); err != nil {
		return nil, err
	}

	role := models.RoleUser
	if rec.IsAdmin {
		role = models.RoleAdmin
	}
	return &Credentials{Token: token, Role: role, User: rec.User}, nil
}

// Authenticate resolves a bearer token to the account it belongs to.
// Suspended accounts fail authentication even with a valid token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*repository.UserRecord, error) {
	userID, err := s.tokens.UserIDByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	rec, err := s.users.ByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, ErrSuspended
	}
	return rec, nil
}

// ProfilePatch carries a partial profile edit; nil fields are left
// unchanged.
type ProfilePatch struct {
	Name      *string `json:"name"`
	Username  *string `json:"username"`
	Number    *string `json:"number"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile applies a partial edit and returns the updated identity.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	rec, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Username != nil {
		rec.Username = *patch.Username
	}
	if patch.Number != nil {
		rec.Number = *patch.Number
	}
	if patch.Bio != nil {
		rec.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		rec.AvatarURL = *patch.AvatarURL
	}
	if err := s.users.UpdateProfile(ctx, *rec); err != nil {
		return nil, err
	}
	u := rec.User
	return &u, nil
}
