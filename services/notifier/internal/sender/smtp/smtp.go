// Package smtp delivers confirmation emails over plain SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender"
)

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender sends emails through an SMTP relay. Authentication is used
// only when a username is configured.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Name() string {
	return "smtp"
}

// Send assembles an RFC 5322 message and hands it to the relay.
// net/smtp validates nothing about the recipient; a bad address
// surfaces as a relay error.
func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.cfg.From, msg.To, msg.Subject, msg.Body,
	)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
