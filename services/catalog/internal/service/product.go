package service

import (
	"context"
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

// Importer hands product batches to the asynchronous import pipeline.
type Importer interface {
	EnqueueBatch(ctx context.Context, batch messages.ProductBatch) error
}

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	importer Importer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, importer Importer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		importer: importer,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name     string
	Code     string
	Category string
}

// UpdateProductInput holds the parameters for updating a product.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	Name     *string
	Code     *string
	Category *string
}

// CreateProduct creates a new product with the given input.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Code == "" {
		return nil, apperrors.InvalidInput("product code is required")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Code:      input.Code,
		Slug:      slug.Generate(input.Name),
		Category:  input.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("code", product.Code),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductByCode retrieves a product by its article code.
func (s *ProductService) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	product, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get product by code: %w", err)
	}
	return product, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies the non-nil fields of the input to an existing
// product. Changing the name regenerates the slug.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}
	if input.Code != nil {
		if *input.Code == "" {
			return nil, apperrors.InvalidInput("product code must not be empty")
		}
		product.Code = *input.Code
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product by ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// ImportProducts enqueues a batch for asynchronous import. Validation is
// shallow here; the importer worker owns the actual insert.
func (s *ProductService) ImportProducts(ctx context.Context, batch messages.ProductBatch) error {
	if len(batch.Products) == 0 {
		return apperrors.InvalidInput("batch must contain at least one product")
	}
	for i, p := range batch.Products {
		if p.Name == "" || p.Code == "" {
			return apperrors.InvalidInput(fmt.Sprintf("product %d: name and code are required", i))
		}
	}

	if err := s.importer.EnqueueBatch(ctx, batch); err != nil {
		return fmt.Errorf("enqueue batch: %w", err)
	}
	return nil
}
