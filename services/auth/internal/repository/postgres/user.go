package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BigRedEye/dc-hw/pkg/database"
	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Phone,
		u.PasswordHash,
		int(u.Role),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrLoginTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, phone, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByLogin retrieves a user by a confirmed email address or phone number.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `
		SELECT id, email, phone, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1 OR phone = $1`

	return r.scanUser(ctx, query, login)
}

// Confirm sets the given login channel on the user row. Exactly one of
// email and phone is non-nil; the other column is left untouched.
func (r *UserRepository) Confirm(ctx context.Context, userID string, email, phone *string) error {
	query := `
		UPDATE users
		SET email = COALESCE($1, email), phone = COALESCE($2, phone), updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, email, phone, time.Now().UTC(), userID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrLoginTaken
		}
		return fmt.Errorf("confirm user login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}

// SetRole updates the user's role.
func (r *UserRepository) SetRole(ctx context.Context, userID string, rl role.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, int(rl), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}

// List returns users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	query := `
		SELECT id, email, phone, password_hash, role, created_at, updated_at
		FROM users
		ORDER BY created_at
		OFFSET $1`
	args := []any{offset}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var roleInt int
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Phone,
			&u.PasswordHash,
			&roleInt,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.Role = role.Role(roleInt)
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	var roleInt int

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&roleInt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = role.Role(roleInt)
	return &u, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
