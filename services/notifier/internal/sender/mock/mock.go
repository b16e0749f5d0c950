package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender"
)

// MockSender logs messages instead of delivering them and always
// succeeds. It is the default when no real provider is configured.
// It simulates a 10ms delay to mimic real sending latency.
type MockSender struct {
	channel string
	logger  *slog.Logger
}

// NewMockSender creates a new mock sender for the given channel.
func NewMockSender(channel string, logger *slog.Logger) *MockSender {
	return &MockSender{
		channel: channel,
		logger:  logger,
	}
}

// Name returns the name of this sender.
func (s *MockSender) Name() string {
	return "mock-" + s.channel
}

// Send logs the message details and simulates a 10ms sending delay.
func (s *MockSender) Send(ctx context.Context, msg sender.Message) error {
	time.Sleep(10 * time.Millisecond)

	s.logger.InfoContext(ctx, "mock sender: message sent",
		slog.String("channel", s.channel),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)

	return nil
}
