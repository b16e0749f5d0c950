// Package authclient calls the auth service to validate session tokens.
// Every guarded request triggers one validate call; verdicts are never
// cached, so revoking a session takes effect immediately.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/httpclient"
	"github.com/BigRedEye/dc-hw/pkg/role"
)

// Config holds auth service client configuration.
type Config struct {
	BaseURL string        `env:"AUTH_URL" envDefault:"http://localhost:8081"`
	Timeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"5s"`
}

// Verdict is the auth service's answer about one token.
type Verdict struct {
	Valid  bool      `json:"valid"`
	UserID string    `json:"user_id,omitempty"`
	Role   role.Role `json:"role"`
}

// Authorizer answers authorization questions about tokens.
type Authorizer interface {
	// Validate asks whether the token belongs to a live session. The
	// verdict is authoritative only for the moment it was produced.
	Validate(ctx context.Context, token string) (Verdict, error)
	// Authorize validates the token and checks the session's role
	// against min. It fails closed: transport problems deny access.
	Authorize(ctx context.Context, token string, min role.Role) error
}

// Client is the HTTP Authorizer backed by the auth service.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
}

// New creates a Client for the configured auth service.
func New(cfg Config, logger *slog.Logger) *Client {
	hcCfg := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		hcCfg.Timeout = cfg.Timeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpclient.NewCircuitBreakerClient(httpclient.New(hcCfg), httpclient.DefaultCircuitBreakerConfig("auth"), logger),
	}
}

type validateRequest struct {
	Token string `json:"token"`
}

// Validate performs a blocking validate call against the auth service.
func (c *Client) Validate(ctx context.Context, token string) (Verdict, error) {
	body, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal validate request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+"/api/v1/auth/validate", "application/json", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("call auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, httpclient.ParseResponseError(resp, "auth")
	}

	var out struct {
		Data Verdict `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("decode validate response: %w", err)
	}
	return out.Data, nil
}

// Authorize validates the token and requires at least the given role.
func (c *Client) Authorize(ctx context.Context, token string, min role.Role) error {
	verdict, err := c.Validate(ctx, token)
	if err != nil {
		return apperrors.Wrap(err, "authorize")
	}
	if !verdict.Valid {
		return apperrors.Unauthorized("invalid or expired token")
	}
	if !verdict.Role.AtLeast(min) {
		return apperrors.Unauthorized("insufficient permissions")
	}
	return nil
}
