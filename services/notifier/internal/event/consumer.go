package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender"
)

// ConfirmationHandler turns queued confirmation requests into outbound
// messages on one delivery channel.
type ConfirmationHandler struct {
	sender sender.Sender
	logger *slog.Logger
}

// NewConfirmationHandler creates a handler that delivers through the
// given sender.
func NewConfirmationHandler(s sender.Sender, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		sender: s,
		logger: logger,
	}
}

// Handle decodes one confirmation request and sends it. Malformed or
// incomplete payloads are logged and acked: redelivering them can never
// succeed. A delivery failure leaves the message unacked so the broker
// retries it.
func (h *ConfirmationHandler) Handle(ctx context.Context, payload []byte) error {
	var c messages.Confirmation
	if err := json.Unmarshal(payload, &c); err != nil {
		h.logger.ErrorContext(ctx, "dropping malformed confirmation",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if c.Login == "" || c.URL == "" {
		h.logger.ErrorContext(ctx, "dropping confirmation without login or url")
		return nil
	}

	msg := sender.Message{
		To:      c.Login,
		Subject: "Confirm your registration",
		Body:    "Follow the link to confirm your registration: " + c.URL,
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation via %s: %w", h.sender.Name(), err)
	}

	h.logger.InfoContext(ctx, "confirmation delivered",
		slog.String("sender", h.sender.Name()),
		slog.String("to", c.Login),
	)
	return nil
}
