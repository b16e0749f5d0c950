package repository

import (
	"context"

	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByLogin retrieves a user by a confirmed email or phone.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// Confirm sets the given login channel on the user row.
	Confirm(ctx context.Context, userID string, email, phone *string) error

	// SetRole updates the user's role.
	SetRole(ctx context.Context, userID string, r role.Role) error

	// List returns users ordered by creation time. A limit <= 0 means
	// no limit.
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
}

// SessionRepository defines the interface for session persistence operations.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *domain.Session) error

	// GetByAccessToken retrieves a session by its access token.
	GetByAccessToken(ctx context.Context, token string) (*domain.Session, error)

	// GetByRefreshToken retrieves a session by its refresh token.
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session by its identifier.
	Delete(ctx context.Context, id string) error
}

// ConfirmationRepository defines the interface for confirmation token
// persistence operations.
type ConfirmationRepository interface {
	// Create stores a new confirmation token.
	Create(ctx context.Context, c *domain.Confirmation) error

	// GetByToken retrieves a confirmation by its token.
	GetByToken(ctx context.Context, token string) (*domain.Confirmation, error)

	// DeleteByToken removes a confirmation, making the token single-use.
	DeleteByToken(ctx context.Context, token string) error
}
