package amqp

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// initialBackoff is the delay before the second connection attempt. The
// first attempt always runs immediately; each subsequent transport
// failure doubles the delay without an upper bound. The delay is never
// reset, so a broker that flaps for hours is approached ever more slowly.
const initialBackoff = 125 * time.Millisecond

// ErrStreamClosed is returned when the broker ends the delivery stream
// without the consumer asking for it.
var ErrStreamClosed = errors.New("delivery stream closed")

// Handler processes a single message payload. A non-nil error leaves the
// message unacknowledged; the broker will redeliver it later.
type Handler interface {
	Handle(ctx context.Context, payload []byte) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload []byte) error

func (f HandlerFunc) Handle(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// Receiver consumes one queue through a Broker, surviving broker outages
// by reconnecting with exponential backoff.
type Receiver struct {
	broker  Broker
	queue   string
	handler Handler
	logger  *slog.Logger

	nextSleep time.Duration
}

// NewReceiver creates a receiver for the given queue.
func NewReceiver(broker Broker, queue string, handler Handler, logger *slog.Logger) *Receiver {
	return &Receiver{
		broker:  broker,
		queue:   queue,
		handler: handler,
		logger:  logger,
	}
}

// Process runs a single consume cycle: wait out the current backoff,
// connect, declare the queue, then handle deliveries until the transport
// fails or ctx is canceled. Transport errors grow the backoff before
// being returned; handler errors never leave the cycle.
func (r *Receiver) Process(ctx context.Context) error {
	if r.nextSleep > 0 {
		select {
		case <-time.After(r.nextSleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := r.consumeCycle(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.growBackoff()
		reconnectsTotal.WithLabelValues(r.queue).Inc()
	}
	return err
}

// Run calls Process in a loop until ctx is canceled, logging each
// transport failure.
func (r *Receiver) Run(ctx context.Context) error {
	r.logger.Info("receiver started", slog.String("queue", r.queue))

	for {
		if err := r.Process(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("receiver stopping", slog.String("queue", r.queue))
				return ctx.Err()
			}
			r.logger.Error("consume cycle failed",
				slog.String("queue", r.queue),
				slog.Duration("next_backoff", r.nextSleep),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (r *Receiver) consumeCycle(ctx context.Context) error {
	sess, err := r.broker.Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.DeclareQueue(ctx, r.queue); err != nil {
		return err
	}

	deliveries, err := sess.Consume(ctx, r.queue)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrStreamClosed
			}

			start := time.Now()
			if err := r.handler.Handle(ctx, d.Body); err != nil {
				// The message stays unacked and will be redelivered;
				// the connection is still healthy, so keep consuming.
				handlerFailures.WithLabelValues(r.queue).Inc()
				r.logger.Error("handler failed, message left unacked",
					slog.String("queue", r.queue),
					slog.Uint64("tag", d.Tag),
					slog.String("error", err.Error()),
				)
				continue
			}
			processingDuration.WithLabelValues(r.queue).Observe(time.Since(start).Seconds())

			if err := sess.Ack(d.Tag); err != nil {
				return err
			}
			messagesProcessed.WithLabelValues(r.queue).Inc()
		}
	}
}

func (r *Receiver) growBackoff() {
	if r.nextSleep == 0 {
		r.nextSleep = initialBackoff
	} else {
		r.nextSleep *= 2
	}
}
