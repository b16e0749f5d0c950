// Package importer drains the product import queue into the catalog
// database.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/pkg/slug"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/domain"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/repository"
)

// BatchHandler turns queued import batches into catalog rows.
type BatchHandler struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

func NewBatchHandler(repo repository.ProductRepository, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{repo: repo, logger: logger}
}

// Handle decodes one batch and bulk-inserts it. Payloads that can never
// succeed on redelivery, such as malformed JSON or batches colliding
// with existing product codes, are logged and acked; only transient
// failures leave the message unacked.
func (h *BatchHandler) Handle(ctx context.Context, payload []byte) error {
	var batch messages.ProductBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		h.logger.Error("dropping malformed import batch", slog.String("error", err.Error()))
		return nil
	}

	now := time.Now().UTC()
	products := make([]domain.Product, 0, len(batch.Products))
	for _, p := range batch.Products {
		if p.Name == "" || p.Code == "" {
			h.logger.Warn("skipping product without name or code", slog.String("code", p.Code))
			continue
		}
		products = append(products, domain.Product{
			ID:        uuid.NewString(),
			Name:      p.Name,
			Code:      p.Code,
			Slug:      slug.Generate(p.Name),
			Category:  p.Category,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(products) == 0 {
		h.logger.Warn("import batch had no usable products")
		return nil
	}

	inserted, err := h.repo.BulkInsert(ctx, products)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			h.logger.Error("dropping import batch with duplicate product codes",
				slog.Int("products", len(products)))
			return nil
		}
		return fmt.Errorf("bulk insert: %w", err)
	}

	h.logger.Info("import batch stored", slog.Int64("inserted", inserted))
	return nil
}
