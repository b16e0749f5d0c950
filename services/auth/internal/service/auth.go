package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/pkg/token"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
	"github.com/BigRedEye/dc-hw/services/auth/internal/repository"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// Dispatcher delivers confirmation tokens to users out of band.
type Dispatcher interface {
	DispatchConfirmation(ctx context.Context, c *domain.Confirmation) error
}

// AuthService implements registration, login and session management.
type AuthService struct {
	users         repository.UserRepository
	sessions      repository.SessionRepository
	confirmations repository.ConfirmationRepository
	dispatcher    Dispatcher
	sessionTTL    time.Duration
	logger        *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	confirmations repository.ConfirmationRepository,
	dispatcher Dispatcher,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		sessions:      sessions,
		confirmations: confirmations,
		dispatcher:    dispatcher,
		sessionTTL:    sessionTTL,
		logger:        logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
// At least one login channel must be supplied.
type RegisterInput struct {
	Email    *string
	Phone    *string
	Password string
}

// Validation is the verdict for one access token. It is always produced,
// never accompanied by an error: anything wrong with the token simply
// yields Valid=false.
type Validation struct {
	Valid  bool      `json:"valid"`
	UserID string    `json:"user_id,omitempty"`
	Role   role.Role `json:"role"`
}

// Register creates a new account with empty login fields and a pending
// confirmation per supplied channel. The account cannot log in until a
// confirmation is redeemed. A login already claimed by a live account or
// a pending confirmation yields ErrLoginTaken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if input.Email == nil && input.Phone == nil {
		return apperrors.InvalidInput("email or phone is required")
	}
	if input.Password == "" {
		return apperrors.InvalidInput("password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		PasswordHash: string(hashedPassword),
		Role:         role.User,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	for _, pending := range []struct{ email, phone *string }{
		{email: input.Email},
		{phone: input.Phone},
	} {
		if pending.email == nil && pending.phone == nil {
			continue
		}

		tok, err := token.New()
		if err != nil {
			return fmt.Errorf("generate confirmation token: %w", err)
		}

		confirmation := &domain.Confirmation{
			Token:     tok,
			UserID:    user.ID,
			Email:     pending.email,
			Phone:     pending.phone,
			CreatedAt: now,
		}

		if err := s.confirmations.Create(ctx, confirmation); err != nil {
			return fmt.Errorf("create confirmation: %w", err)
		}

		// The confirmation row is already persisted; a delivery failure
		// is logged but never rolls back the registration.
		if err := s.dispatcher.DispatchConfirmation(ctx, confirmation); err != nil {
			s.logger.ErrorContext(ctx, "failed to dispatch confirmation",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return nil
}

// Login authenticates by confirmed email or phone. Unknown logins and
// wrong passwords are indistinguishable from the outside.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.TokenPair, error) {
	if login == "" {
		return nil, apperrors.InvalidInput("login is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("get user by login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}

	tokens, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return tokens, nil
}

// Confirm redeems a confirmation token, moving the pending login onto
// the user row. The token is removed first, so it is single use.
func (s *AuthService) Confirm(ctx context.Context, tok string) error {
	if tok == "" {
		return apperrors.InvalidInput("token is required")
	}

	confirmation, err := s.confirmations.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("confirmation", tok)
		}
		return fmt.Errorf("get confirmation: %w", err)
	}

	if err := s.confirmations.DeleteByToken(ctx, tok); err != nil {
		return fmt.Errorf("delete confirmation: %w", err)
	}

	if err := s.users.Confirm(ctx, confirmation.UserID, confirmation.Email, confirmation.Phone); err != nil {
		return fmt.Errorf("confirm user login: %w", err)
	}

	s.logger.InfoContext(ctx, "login confirmed", slog.String("user_id", confirmation.UserID))
	return nil
}

// Refresh rotates a session: the old one is removed and a fresh token
// pair is issued for the same user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get session by refresh token: %w", err)
	}

	// Rotation: the old session must not outlive the new one. A failed
	// delete is not worth failing the refresh over.
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete rotated session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	tokens, err := s.createSession(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session refreshed", slog.String("user_id", session.UserID))
	return tokens, nil
}

// Validate checks an access token. It is a total function: any failure
// along the way, including store errors, yields an invalid verdict
// rather than an error. Authorization fails closed.
func (s *AuthService) Validate(ctx context.Context, accessToken string) Validation {
	invalid := Validation{Valid: false, Role: role.User}

	if accessToken == "" {
		return invalid
	}

	session, err := s.sessions.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return invalid
	}

	if session.Expired(time.Now().UTC()) {
		return invalid
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return invalid
	}

	return Validation{Valid: true, UserID: user.ID, Role: user.Role}
}

// SetRole updates a user's role. Existing sessions pick the new role up
// on their next validation.
func (s *AuthService) SetRole(ctx context.Context, userID string, r role.Role) error {
	if !r.Valid() {
		return apperrors.InvalidInput("unknown role")
	}

	if err := s.users.SetRole(ctx, userID, r); err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	s.logger.InfoContext(ctx, "role updated",
		slog.String("user_id", userID),
		slog.String("role", r.String()),
	)
	return nil
}

// ListUsers returns users ordered by creation time. A non-positive
// limit means no limit; a negative offset is treated as zero.
func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) ([]domain.User, error) {
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// createSession generates an independent access/refresh token pair and
// stores the session with an absolute expiry.
func (s *AuthService) createSession(ctx context.Context, userID string) (*domain.TokenPair, error) {
	accessToken, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
