package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigRedEye/dc-hw/pkg/database"
	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/domain"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var productColumns = []string{
	"id", "name", "code", "slug", "category", "created_at", "updated_at",
}

var productColumnsWithCount = []string{
	"id", "name", "code", "slug", "category", "created_at", "updated_at",
	"total_count",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:        "prod-1",
		Name:      "Cordless Drill",
		Code:      "TL-0042",
		Slug:      "cordless-drill",
		Category:  "tools",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func productRow(p domain.Product) []any {
	return []any{p.ID, p.Name, p.Code, p.Slug, p.Category, p.CreatedAt, p.UpdatedAt}
}

// ─── Create ─────────────────────────────────────────────────────────────────

func TestProductCreate_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Code, p.Slug, p.Category, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &p)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreate_DuplicateCode(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Code, p.Slug, p.Category, p.CreatedAt, p.UpdatedAt).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), &p)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

// ─── Get ────────────────────────────────────────────────────────────────────

func TestProductGetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productColumns).AddRow(productRow(p)...))

	got, err := repo.GetByID(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestProductGetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductGetByCode_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(p.Code).
		WillReturnRows(pgxmock.NewRows(productColumns).AddRow(productRow(p)...))

	got, err := repo.GetByCode(context.Background(), p.Code)

	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

// ─── List ───────────────────────────────────────────────────────────────────

func TestProductList_NoFilter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	rows := pgxmock.NewRows(productColumnsWithCount).
		AddRow(append(productRow(p), 1)...)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(20, 0).
		WillReturnRows(rows)

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Page: 1, PerPage: 20})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, p.Code, products[0].Code)
}

func TestProductList_CategoryFilter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	rows := pgxmock.NewRows(productColumnsWithCount).
		AddRow(append(productRow(p), 7)...)

	mock.ExpectQuery("WHERE category = (.+) ORDER BY created_at DESC").
		WithArgs("tools", 10, 10).
		WillReturnRows(rows)

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Category: strPtr("tools"),
		Page:     2,
		PerPage:  10,
	})

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, products, 1)
}

// ─── Update / Delete ────────────────────────────────────────────────────────

func TestProductUpdate_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectExec("UPDATE products").
		WithArgs(p.ID, p.Name, p.Code, p.Slug, p.Category, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), &p)

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductDelete_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products").
		WithArgs("prod-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "prod-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── BulkInsert ─────────────────────────────────────────────────────────────

func TestProductBulkInsert_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	batch := []domain.Product{sampleProduct(), {
		ID:        "prod-2",
		Name:      "Claw Hammer",
		Code:      "TL-0043",
		Slug:      "claw-hammer",
		Category:  "tools",
		CreatedAt: now,
		UpdatedAt: now,
	}}

	mock.ExpectCopyFrom(pgx.Identifier{"products"},
		[]string{"id", "name", "code", "slug", "category", "created_at", "updated_at"}).
		WillReturnResult(2)

	copied, err := repo.BulkInsert(context.Background(), batch)

	require.NoError(t, err)
	assert.Equal(t, int64(2), copied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductBulkInsert_DuplicateCode(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectCopyFrom(pgx.Identifier{"products"},
		[]string{"id", "name", "code", "slug", "category", "created_at", "updated_at"}).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	_, err := repo.BulkInsert(context.Background(), []domain.Product{sampleProduct()})

	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}
