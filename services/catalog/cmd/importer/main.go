// The importer worker drains the product import queue into the catalog
// database. It runs alongside the HTTP server as a separate process so
// bulk imports never compete with interactive traffic for the server's
// request budget.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgamqp "github.com/BigRedEye/dc-hw/pkg/amqp"
	"github.com/BigRedEye/dc-hw/pkg/database"
	"github.com/BigRedEye/dc-hw/pkg/logger"
	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/config"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/importer"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/repository/postgres"
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

	log := logger.New("catalog-importer", cfg.LogLevel)
	log.Info("starting import worker",
		slog.String("environment", cfg.Environment),
		slog.String("queue", messages.QueueProductsImport),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	defer initCancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	// The worker writes in bursts and never serves interactive queries.
	pgCfg.MaxConns = 5

	pool, err := database.NewPostgresPool(initCtx, &pgCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	handler := importer.NewBatchHandler(postgres.NewProductRepository(pool), log)
	broker := pkgamqp.NewDialer(pkgamqp.Config{
		URL:         cfg.AMQPURL,
		DialTimeout: 10 * time.Second,
	})
	receiver := pkgamqp.NewReceiver(broker, messages.QueueProductsImport, handler, log)

	return receiver.Run(ctx)
}
