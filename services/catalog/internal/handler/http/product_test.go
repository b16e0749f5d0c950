package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BigRedEye/dc-hw/pkg/authclient"
	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/httputil"
	"github.com/BigRedEye/dc-hw/pkg/messages"
	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/domain"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/repository"
	"github.com/BigRedEye/dc-hw/services/catalog/internal/service"
)

// ============================================================================
// Mocks
// ============================================================================

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepo) BulkInsert(ctx context.Context, products []domain.Product) (int64, error) {
	args := m.Called(ctx, products)
	return args.Get(0).(int64), args.Error(1)
}

type mockImporter struct {
	mock.Mock
}

func (m *mockImporter) EnqueueBatch(ctx context.Context, batch messages.ProductBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// allowAll authorizes every request at the given role.
type allowAll struct {
	role role.Role
}

func (a *allowAll) Validate(ctx context.Context, token string) (authclient.Verdict, error) {
	return authclient.Verdict{Valid: true, UserID: "u-1", Role: a.role}, nil
}

func (a *allowAll) Authorize(ctx context.Context, token string, min role.Role) error {
	if !a.role.AtLeast(min) {
		return apperrors.Unauthorized("insufficient permissions")
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func catalogTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func catalogTestHandler() (*ProductHandler, *mockProductRepo, *mockImporter) {
	repo := new(mockProductRepo)
	importer := new(mockImporter)
	svc := service.NewProductService(repo, importer, catalogTestLogger())
	return NewProductHandler(svc, catalogTestLogger()), repo, importer
}

// setupCatalogRouter mirrors the production route layout with a stubbed
// authorizer at the given role.
func setupCatalogRouter(handler *ProductHandler, callerRole role.Role) *chi.Mux {
	authz := &allowAll{role: callerRole}
	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authclient.Require(authz, role.User))
			r.Get("/", handler.ListProducts)
			r.Get("/{id}", handler.GetProduct)
		})
		r.Group(func(r chi.Router) {
			r.Use(authclient.Require(authz, role.Admin))
			r.Post("/", handler.CreateProduct)
			r.Put("/{id}", handler.UpdateProduct)
			r.Delete("/{id}", handler.DeleteProduct)
			r.Post("/import", handler.ImportProducts)
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const testProductID = "550e8400-e29b-41d4-a716-446655440010"

func testProduct() *domain.Product {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:        testProductID,
		Name:      "Cordless Drill",
		Code:      "TL-0042",
		Slug:      "cordless-drill",
		Category:  "tools",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ============================================================================
// Read endpoints
// ============================================================================

func TestListProducts_Success(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	repo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductFilter")).
		Return([]domain.Product{*testProduct()}, 1, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var result map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, float64(1), result["total_count"])
}

func TestGetProduct_Success(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	repo.On("GetByID", mock.Anything, testProductID).Return(testProduct(), nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/"+testProductID, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "TL-0042", data["code"])
}

func TestGetProduct_NotFound(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	repo.On("GetByID", mock.Anything, testProductID).Return(nil, apperrors.ErrNotFound)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/"+testProductID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts_RequiresToken(t *testing.T) {
	handler, _, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================================================
// Write endpoints
// ============================================================================

func TestCreateProduct_Created(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.Admin)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/",
		`{"name":"Cordless Drill","code":"TL-0042","category":"tools"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateProduct_RejectedForPlainUser(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/",
		`{"name":"Cordless Drill","code":"TL-0042"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateProduct_DuplicateCode(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.Admin)

	repo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("product", "code", "TL-0042"))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/",
		`{"name":"Cordless Drill","code":"TL-0042"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteProduct_NoContent(t *testing.T) {
	handler, repo, _ := catalogTestHandler()
	router := setupCatalogRouter(handler, role.Admin)

	repo.On("Delete", mock.Anything, testProductID).Return(nil)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/products/"+testProductID, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// ============================================================================
// Import endpoint
// ============================================================================

func TestImportProducts_Accepted(t *testing.T) {
	handler, _, importer := catalogTestHandler()
	router := setupCatalogRouter(handler, role.Admin)

	importer.On("EnqueueBatch", mock.Anything, mock.AnythingOfType("messages.ProductBatch")).
		Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/import",
		`{"products":[{"name":"Drill","code":"TL-0042","category":"tools"}]}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	importer.AssertExpectations(t)
}

func TestImportProducts_EmptyBatchRejected(t *testing.T) {
	handler, _, importer := catalogTestHandler()
	router := setupCatalogRouter(handler, role.Admin)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/import", `{"products":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	importer.AssertNotCalled(t, "EnqueueBatch")
}

func TestImportProducts_RejectedForPlainUser(t *testing.T) {
	handler, _, importer := catalogTestHandler()
	router := setupCatalogRouter(handler, role.User)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products/import",
		`{"products":[{"name":"Drill","code":"TL-0042"}]}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	importer.AssertNotCalled(t, "EnqueueBatch")
}
