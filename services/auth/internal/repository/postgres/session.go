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

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(pool database.DBTX) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, access_token, refresh_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.AccessToken,
		s.RefreshToken,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByAccessToken retrieves a session by its access token.
func (r *SessionRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.scanSession(ctx, `
		SELECT id, user_id, access_token, refresh_token, created_at, expires_at
		FROM sessions
		WHERE access_token = $1`, token)
}

// GetByRefreshToken retrieves a session by its refresh token.
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.scanSession(ctx, `
		SELECT id, user_id, access_token, refresh_token, created_at, expires_at
		FROM sessions
		WHERE refresh_token = $1`, token)
}

// Delete removes a session by its ID.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("session", id)
	}

	return nil
}

func (r *SessionRepository) scanSession(ctx context.Context, query string, args ...any) (*domain.Session, error) {
	var s domain.Session

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.UserID,
		&s.AccessToken,
		&s.RefreshToken,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &s, nil
}
