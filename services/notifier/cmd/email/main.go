// The email worker delivers registration confirmations from the
// confirmations_email queue through an SMTP relay.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgamqp "github.com/BigRedEye/dc-hw/pkg/amqp"
	"github.com/BigRedEye/dc-hw/pkg/health"
	"github.com/BigRedEye/dc-hw/pkg/logger"
	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/config"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/event"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender/mock"
	"github.com/BigRedEye/dc-hw/services/notifier/internal/sender/smtp"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("notifier-email", cfg.LogLevel)

	var s sender.Sender
	if cfg.SMTPHost != "" {
		s = smtp.New(smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		s = mock.NewMockSender("email", log)
	}

	log.Info("starting email worker",
		slog.String("environment", cfg.Environment),
		slog.String("queue", messages.QueueConfirmationsEmail),
		slog.String("sender", s.Name()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startMetricsServer(ctx, cfg.EmailMetricsPort, log)

	handler := event.NewConfirmationHandler(s, log)
	broker := pkgamqp.NewDialer(pkgamqp.Config{
		URL:         cfg.AMQPURL,
		DialTimeout: 10 * time.Second,
	})
	receiver := pkgamqp.NewReceiver(broker, messages.QueueConfirmationsEmail, handler, log)

	return receiver.Run(ctx)
}

// startMetricsServer exposes /metrics and liveness on a side port. It
// shuts down with the worker's context.
func startMetricsServer(ctx context.Context, port int, log *slog.Logger) {
	healthHandler := health.NewHandler()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", healthHandler.LivenessHandler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
