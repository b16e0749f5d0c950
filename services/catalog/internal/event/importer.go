package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgamqp "github.com/BigRedEye/dc-hw/pkg/amqp"
	"github.com/BigRedEye/dc-hw/pkg/messages"
)

// Publisher is the outbound port for queue publishing.
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

var _ Publisher = (*pkgamqp.Publisher)(nil)

// ImportQueue hands product batches off to the importer worker.
type ImportQueue struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewImportQueue creates a new import queue producer.
func NewImportQueue(publisher Publisher, logger *slog.Logger) *ImportQueue {
	return &ImportQueue{publisher: publisher, logger: logger}
}

// EnqueueBatch publishes a product batch to the import queue. The batch
// is persisted by the broker; the importer picks it up asynchronously.
func (q *ImportQueue) EnqueueBatch(ctx context.Context, batch messages.ProductBatch) error {
	if err := q.publisher.Publish(ctx, messages.QueueProductsImport, batch); err != nil {
		return fmt.Errorf("publish product batch: %w", err)
	}

	q.logger.InfoContext(ctx, "product batch enqueued",
		slog.Int("products", len(batch.Products)),
	)
	return nil
}
