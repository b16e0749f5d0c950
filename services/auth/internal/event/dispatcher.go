package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgamqp "github.com/BigRedEye/dc-hw/pkg/amqp"
	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/services/auth/internal/domain"
)

// Publisher sends JSON messages to a queue. Satisfied by *amqp.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// Dispatcher hands confirmation tokens to the delivery workers. The
// channel of the pending login picks the queue: email confirmations go
// to the email worker, phone confirmations to the SMS worker.
type Dispatcher struct {
	publisher      Publisher
	confirmBaseURL string
	logger         *slog.Logger
}

// NewDispatcher creates a dispatcher publishing over the given publisher.
// confirmBaseURL is the public URL the confirmation token is appended to.
func NewDispatcher(publisher Publisher, confirmBaseURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher:      publisher,
		confirmBaseURL: confirmBaseURL,
		logger:         logger,
	}
}

// DispatchConfirmation publishes a confirmation message for delivery.
func (d *Dispatcher) DispatchConfirmation(ctx context.Context, c *domain.Confirmation) error {
	var queue, login string
	switch {
	case c.Email != nil:
		queue, login = messages.QueueConfirmationsEmail, *c.Email
	case c.Phone != nil:
		queue, login = messages.QueueConfirmationsPhone, *c.Phone
	default:
		return fmt.Errorf("confirmation %s has no login channel", c.Token)
	}

	msg := messages.Confirmation{
		Login: login,
		URL:   fmt.Sprintf("%s?token=%s", d.confirmBaseURL, c.Token),
	}

	if err := d.publisher.Publish(ctx, queue, msg); err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}

	d.logger.DebugContext(ctx, "confirmation dispatched",
		slog.String("queue", queue),
		slog.String("user_id", c.UserID),
	)

	return nil
}

var _ Publisher = (*pkgamqp.Publisher)(nil)
