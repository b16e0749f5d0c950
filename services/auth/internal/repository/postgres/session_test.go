package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:           "s-1234",
		UserID:       "u-1234",
		AccessToken:  "accesstokenaccesstokenaccesstoke",
		RefreshToken: "refreshtokenrefreshtokenrefresht",
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

func sessionColumns() []string {
	return []string{"id", "user_id", "access_token", "refresh_token", "created_at", "expires_at"}
}

func sessionRow(s *domain.Session) *pgxmock.Rows {
	return pgxmock.NewRows(sessionColumns()).AddRow(
		s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.CreatedAt, s.ExpiresAt,
	)
}

func TestSessionRepository_Create_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_TokenCollision(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.CreatedAt, s.ExpiresAt).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByAccessToken_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE access_token =").
		WithArgs(s.AccessToken).
		WillReturnRows(sessionRow(s))

	got, err := repo.GetByAccessToken(context.Background(), s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.UserID, got.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByAccessToken_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE access_token =").
		WithArgs("unknown").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByAccessToken(context.Background(), "unknown")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByRefreshToken_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE refresh_token =").
		WithArgs(s.RefreshToken).
		WillReturnRows(sessionRow(s))

	got, err := repo.GetByRefreshToken(context.Background(), s.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE id =").
		WithArgs("s-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "s-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE id =").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
