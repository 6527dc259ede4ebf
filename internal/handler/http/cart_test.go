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

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/event"
	"github.com/driftwear/storefront/internal/repository"
	"github.com/driftwear/storefront/internal/service"
	apperrors "github.com/driftwear/storefront/pkg/errors"
	"github.com/driftwear/storefront/pkg/httputil"
	pkgkafka "github.com/driftwear/storefront/pkg/kafka"
	"github.com/driftwear/storefront/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockCartRepo struct {
	mock.Mock
}

func (m *mockCartRepo) GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) UpsertItem(ctx context.Context, cartID, variantID string, quantity int) error {
	args := m.Called(ctx, cartID, variantID, quantity)
	return args.Error(0)
}

func (m *mockCartRepo) RemoveItem(ctx context.Context, cartID, variantID string) error {
	args := m.Called(ctx, cartID, variantID)
	return args.Error(0)
}

type mockVariantRepo struct {
	mock.Mock
}

func (m *mockVariantRepo) GetByID(ctx context.Context, id string) (*domain.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Variant), args.Error(1)
}

type mockAddressRepo struct {
	mock.Mock
}

func (m *mockAddressRepo) Create(ctx context.Context, a *domain.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAddressRepo) GetByID(ctx context.Context, id, customerID string) (*domain.Address, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

type mockCouponRepo struct {
	mock.Mock
}

func (m *mockCouponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Commit(ctx context.Context, input *repository.CommitInput) (*repository.CommitResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CommitResult), args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id, customerID string) (*domain.Order, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, customerID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, customerID, page, perPage)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func testCartHandler(carts *mockCartRepo, variants *mockVariantRepo) *CartHandler {
	svc := service.NewCartService(carts, variants, testEventProducer(), testLogger())
	return NewCartHandler(svc, testLogger())
}

// setupCartRouter mirrors the production route layout for cart endpoints,
// including ContentTypeJSON and the customer identity middleware so auth
// behavior is tested end-to-end.
func setupCartRouter(handler *CartHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireCustomer())

		r.Get("/", handler.GetCart)
		r.Post("/items", handler.AddItem)
		r.Put("/items/{variantID}", handler.UpdateItem)
		r.Delete("/items/{variantID}", handler.RemoveItem)
	})
	return r
}

// decodeResponse reads the response body into the standard Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

const validVariantID = "550e8400-e29b-41d4-a716-446655440002"

func handlerTestVariant(stock int) *domain.Variant {
	return &domain.Variant{
		ID:          validVariantID,
		ProductID:   "prod-1",
		ProductName: "Waxed Canvas Jacket",
		SKU:         "WCJ-OLV-M",
		ColorName:   "Olive",
		SizeName:    "M",
		FinalPrice:  12900,
		StockQty:    stock,
		IsActive:    true,
	}
}

func handlerTestCart(qty int) *domain.Cart {
	now := time.Now().UTC()
	cart := &domain.Cart{
		ID:         "cart-1",
		CustomerID: "cust-1",
		Items:      []domain.CartItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if qty > 0 {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:          "line-1",
			VariantID:   validVariantID,
			ProductName: "Waxed Canvas Jacket",
			SKU:         "WCJ-OLV-M",
			UnitPrice:   12900,
			Quantity:    qty,
		})
	}
	return cart
}

// ============================================================================
// GET /api/v1/cart - GetCart
// ============================================================================

func TestGetCart_Success(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(2), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	carts.AssertExpectations(t)
}

func TestGetCart_MissingUserID_Returns401(t *testing.T) {
	router := setupCartRouter(testCartHandler(new(mockCartRepo), new(mockVariantRepo)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	// No X-User-ID header.
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

// ============================================================================
// POST /api/v1/cart/items - AddItem
// ============================================================================

func addItemJSON(qty int) []byte {
	b, _ := json.Marshal(AddItemRequest{VariantID: validVariantID, Quantity: qty})
	return b
}

func TestAddItem_Success(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	variants.On("GetByID", mock.Anything, validVariantID).Return(handlerTestVariant(10), nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(0), nil).Once()
	carts.On("UpsertItem", mock.Anything, "cart-1", validVariantID, 2).Return(nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(2), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(2)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	carts.AssertExpectations(t)
}

func TestAddItem_OutOfStock_Returns409(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	variants.On("GetByID", mock.Anything, validVariantID).Return(handlerTestVariant(1), nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(0), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(2)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUT_OF_STOCK", resp.Error.Code)
}

func TestAddItem_MergeExceedsStock_Returns409(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	variants.On("GetByID", mock.Anything, validVariantID).Return(handlerTestVariant(5), nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(4), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(2)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXCEEDS_STOCK", resp.Error.Code)
}

func TestAddItem_InvalidQuantity_Returns400(t *testing.T) {
	router := setupCartRouter(testCartHandler(new(mockCartRepo), new(mockVariantRepo)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(101)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_InvalidVariantUUID_Returns400(t *testing.T) {
	router := setupCartRouter(testCartHandler(new(mockCartRepo), new(mockVariantRepo)))

	b, _ := json.Marshal(AddItemRequest{VariantID: "not-a-uuid", Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_WrongContentType_Returns415(t *testing.T) {
	router := setupCartRouter(testCartHandler(new(mockCartRepo), new(mockVariantRepo)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(1)))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ============================================================================
// PUT /api/v1/cart/items/{variantID} - UpdateItem
// ============================================================================

func TestUpdateItem_Success(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	variants.On("GetByID", mock.Anything, validVariantID).Return(handlerTestVariant(10), nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(2), nil).Once()
	carts.On("UpsertItem", mock.Anything, "cart-1", validVariantID, 5).Return(nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(5), nil).Once()

	b, _ := json.Marshal(UpdateQuantityRequest{Quantity: 5})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+validVariantID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	carts.AssertExpectations(t)
}

func TestUpdateItem_ZeroQuantityRemovesLine(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(2), nil).Once()
	carts.On("RemoveItem", mock.Anything, "cart-1", validVariantID).Return(nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(0), nil).Once()

	b, _ := json.Marshal(UpdateQuantityRequest{Quantity: 0})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+validVariantID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	variants.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	carts.AssertExpectations(t)
}

func TestUpdateItem_BadVariantIDParam_Returns400(t *testing.T) {
	router := setupCartRouter(testCartHandler(new(mockCartRepo), new(mockVariantRepo)))

	b, _ := json.Marshal(UpdateQuantityRequest{Quantity: 1})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/not-a-uuid", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// DELETE /api/v1/cart/items/{variantID} - RemoveItem
// ============================================================================

func TestRemoveItem_Success(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(2), nil).Once()
	carts.On("RemoveItem", mock.Anything, "cart-1", validVariantID).Return(nil)
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(0), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+validVariantID, nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	carts.AssertExpectations(t)
}

func TestRemoveItem_VariantNotFoundInCatalog(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	// A stale line for a variant that no longer exists can still be removed.
	carts.On("GetOrCreate", mock.Anything, "cust-1").Return(handlerTestCart(0), nil)
	carts.On("RemoveItem", mock.Anything, "cart-1", validVariantID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+validVariantID, nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	carts.AssertExpectations(t)
}

// apperrors from the service layer pass through the shared error writer.
func TestAddItem_VariantNotFound_Returns404(t *testing.T) {
	carts := new(mockCartRepo)
	variants := new(mockVariantRepo)
	router := setupCartRouter(testCartHandler(carts, variants))

	variants.On("GetByID", mock.Anything, validVariantID).
		Return(nil, apperrors.NotFound("variant", validVariantID))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemJSON(1)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
