package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/role"
)

type stubAuthorizer struct {
	verdict Verdict
	err     error
	calls   int
	lastTok string
}

func (s *stubAuthorizer) Validate(ctx context.Context, token string) (Verdict, error) {
	s.calls++
	s.lastTok = token
	return s.verdict, s.err
}

func (s *stubAuthorizer) Authorize(ctx context.Context, token string, min role.Role) error {
	verdict, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	if !verdict.Valid {
		return apperrors.Unauthorized("invalid or expired token")
	}
	if !verdict.Role.AtLeast(min) {
		return apperrors.Unauthorized("insufficient permissions")
	}
	return nil
}

func runMiddleware(t *testing.T, authz Authorizer, min role.Role, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	Require(authz, min)(next).ServeHTTP(rec, req)
	return rec, called
}

func TestRequire_ValidTokenPassesThrough(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: true, UserID: "u-1", Role: role.User}}

	rec, called := runMiddleware(t, authz, role.User, "Bearer goodtoken")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, authz.calls)
	assert.Equal(t, "goodtoken", authz.lastTok)
}

func TestRequire_MissingHeader(t *testing.T) {
	authz := &stubAuthorizer{}

	rec, called := runMiddleware(t, authz, role.User, "")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, authz.calls, "validate should not be called without a token")
}

func TestRequire_MalformedHeader(t *testing.T) {
	for _, header := range []string{"goodtoken", "Basic abc", "Bearer"} {
		authz := &stubAuthorizer{}
		rec, called := runMiddleware(t, authz, role.User, header)
		assert.False(t, called, "header %q", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequire_InvalidToken(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: false}}

	rec, called := runMiddleware(t, authz, role.User, "Bearer expired")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_InsufficientRole(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: true, UserID: "u-1", Role: role.User}}

	rec, called := runMiddleware(t, authz, role.Admin, "Bearer goodtoken")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestRequire_AdminSatisfiesUserRequirement(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: true, UserID: "u-1", Role: role.Admin}}

	rec, called := runMiddleware(t, authz, role.User, "Bearer admintoken")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequire_TransportErrorFailsClosed(t *testing.T) {
	authz := &stubAuthorizer{err: errors.New("connection refused")}

	rec, called := runMiddleware(t, authz, role.User, "Bearer token")
	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequire_ValidatesEveryRequest(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: true, UserID: "u-1", Role: role.User}}

	for i := 0; i < 3; i++ {
		_, called := runMiddleware(t, authz, role.User, "Bearer goodtoken")
		assert.True(t, called)
	}
	assert.Equal(t, 3, authz.calls, "no caching between requests")
}

func TestRequire_InjectsIdentityIntoContext(t *testing.T) {
	authz := &stubAuthorizer{verdict: Verdict{Valid: true, UserID: "u-42", Role: role.Admin}}

	var gotUserID string
	var gotRole role.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer admintoken")
	Require(authz, role.User)(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "u-42", gotUserID)
	assert.Equal(t, role.Admin, gotRole)
}

func TestRoleFromContext_Default(t *testing.T) {
	assert.Equal(t, role.User, RoleFromContext(context.Background()))
	assert.Equal(t, "", UserIDFromContext(context.Background()))
}
