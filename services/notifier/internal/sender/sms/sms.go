// Package sms delivers confirmation texts through an HTTP SMS gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BigRedEye/dc-hw/pkg/httpclient"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender"
)

// Config holds SMS gateway settings.
type Config struct {
	// APIURL is the gateway's send endpoint, e.g. https://api.example.com/v1/sms.
	APIURL string
	APIKey string
	From   string
}

// Sender posts messages to an HTTP SMS gateway. Retries and connection
// pooling come from the shared HTTP client.
type Sender struct {
	cfg    Config
	client *httpclient.Client
}

func New(cfg Config, client *httpclient.Client) *Sender {
	return &Sender{cfg: cfg, client: client}
}

func (s *Sender) Name() string {
	return "sms"
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// Send posts one message. The subject is dropped: SMS has no subject
// line, the body already carries the confirmation link.
func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	payload, err := json.Marshal(sendRequest{
		From: s.cfg.From,
		To:   msg.To,
		Text: msg.Body,
	})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
