package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BigRedEye/dc-hw/pkg/database"
	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
)

// ConfirmationRepository implements repository.ConfirmationRepository using PostgreSQL.
type ConfirmationRepository struct {
	pool database.DBTX
}

// NewConfirmationRepository creates a new PostgreSQL-backed confirmation repository.
func NewConfirmationRepository(pool database.DBTX) *ConfirmationRepository {
	return &ConfirmationRepository{pool: pool}
}

// Create stores a new confirmation token. The unique indexes on email and
// phone make this the registration-time login uniqueness check.
func (r *ConfirmationRepository) Create(ctx context.Context, c *domain.Confirmation) error {
	query := `
		INSERT INTO confirmations (token, user_id, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		c.Token,
		c.UserID,
		c.Email,
		c.Phone,
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrLoginTaken
		}
		return fmt.Errorf("insert confirmation: %w", err)
	}

	return nil
}

// GetByToken retrieves a confirmation by its token.
func (r *ConfirmationRepository) GetByToken(ctx context.Context, token string) (*domain.Confirmation, error) {
	query := `
		SELECT token, user_id, email, phone, created_at
		FROM confirmations
		WHERE token = $1`

	var c domain.Confirmation
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&c.Token,
		&c.UserID,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan confirmation: %w", err)
	}

	return &c, nil
}

// DeleteByToken removes a confirmation, making the token single-use.
func (r *ConfirmationRepository) DeleteByToken(ctx context.Context, token string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM confirmations WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete confirmation: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("confirmation", token)
	}

	return nil
}
