package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"
)

// Publisher sends JSON messages to queues. The connection is opened
// lazily and re-opened after failures; declared queues are durable so
// messages survive broker restarts.
type Publisher struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// NewPublisher creates a publisher for the configured AMQP server.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	return &Publisher{cfg: cfg, logger: logger}
}

// Publish marshals v to JSON and sends it to the named queue, declaring
// the queue first. A broken channel is dropped and redialed once.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publishLocked(ctx, queue, body); err != nil {
		p.closeLocked()
		if err := p.publishLocked(ctx, queue, body); err != nil {
			publishErrors.WithLabelValues(queue).Inc()
			return err
		}
	}

	publishedTotal.WithLabelValues(queue).Inc()
	return nil
}

// Close releases the underlying connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	p.ch = nil
	return err
}

func (p *Publisher) publishLocked(ctx context.Context, queue string, body []byte) error {
	if err := p.ensureChannelLocked(); err != nil {
		return err
	}

	if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %q: %w", queue, err)
	}

	err := p.ch.PublishWithContext(ctx, "", queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to queue %q: %w", queue, err)
	}
	return nil
}

func (p *Publisher) ensureChannelLocked() error {
	if p.ch != nil && !p.conn.IsClosed() {
		return nil
	}

	p.closeLocked()

	conn, err := amqp091.DialConfig(p.cfg.URL, amqp091.Config{
		Dial: amqp091.DefaultDial(p.cfg.DialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Debug("close amqp connection", slog.String("error", err.Error()))
		}
	}
	p.conn = nil
	p.ch = nil
}
