package repository

import (
	"context"
	"errors"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository defines persistence for user accounts and their
// refresh-token sets. All refresh-token mutations are atomic per user row;
// the conditional operations report false when the expected token was absent.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id, name string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id, url, objectID string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetVerified(ctx context.Context, id string) error

	AppendRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken atomically replaces oldTok with newTok; false when
	// oldTok was not in the active set.
	RotateRefreshToken(ctx context.Context, id, oldTok, newTok string) (bool, error)
	// RemoveRefreshToken removes exactly the presented token; false when it
	// was not in the active set.
	RemoveRefreshToken(ctx context.Context, id, token string) (bool, error)
	ClearRefreshTokens(ctx context.Context, id string) error
}
