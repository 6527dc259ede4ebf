package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/service"
	apperrors "github.com/driftwear/storefront/pkg/errors"
	"github.com/driftwear/storefront/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

const validAddressID = "550e8400-e29b-41d4-a716-446655440030"

func testAddressHandler(addresses *mockAddressRepo) *AddressHandler {
	svc := service.NewAddressService(addresses, testLogger())
	return NewAddressHandler(svc, testLogger())
}

func setupAddressRouter(handler *AddressHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireCustomer())

		r.Post("/", handler.CreateAddress)
		r.Get("/", handler.ListAddresses)
		r.Get("/{id}", handler.GetAddress)
	})
	return r
}

func createAddressJSON() []byte {
	b, _ := json.Marshal(CreateAddressRequest{
		FirstName:    "Ada",
		LastName:     "Byrne",
		AddressLine1: "1 Mill Lane",
		City:         "Portland",
		State:        "OR",
		PostalCode:   "97201",
		Country:      "US",
		IsDefault:    true,
	})
	return b
}

// ============================================================================
// POST /api/v1/addresses - CreateAddress
// ============================================================================

func TestCreateAddress_Handler_Success(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	addresses.On("Create", mock.Anything, mock.AnythingOfType("*domain.Address")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/addresses", bytes.NewReader(createAddressJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "cust-1", data["customer_id"])
	assert.Equal(t, "Ada", data["first_name"])
	assert.NotEmpty(t, data["id"])
	addresses.AssertExpectations(t)
}

func TestCreateAddress_Handler_MissingRequiredFields_Returns400(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/addresses",
		bytes.NewReader([]byte(`{"first_name":"Ada"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAddress_Handler_MalformedJSON_Returns400(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/addresses",
		bytes.NewReader([]byte(`{"first_name":`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

// ============================================================================
// GET /api/v1/addresses - ListAddresses
// ============================================================================

func TestListAddresses_Handler_Success(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	addresses.On("ListByCustomer", mock.Anything, "cust-1").Return([]domain.Address{
		{ID: validAddressID, CustomerID: "cust-1", FirstName: "Ada", IsDefault: true},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses", nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	list := resp.Data.([]any)
	require.Len(t, list, 1)
	assert.Equal(t, validAddressID, list[0].(map[string]any)["id"])
}

// ============================================================================
// GET /api/v1/addresses/{id} - GetAddress
// ============================================================================

func TestGetAddress_Handler_Success(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	addresses.On("GetByID", mock.Anything, validAddressID, "cust-1").
		Return(&domain.Address{ID: validAddressID, CustomerID: "cust-1", FirstName: "Ada"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses/"+validAddressID, nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, validAddressID, resp.Data.(map[string]any)["id"])
}

func TestGetAddress_Handler_NotFound_Returns404(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	addresses.On("GetByID", mock.Anything, validAddressID, "cust-1").
		Return(nil, apperrors.NotFound("address", validAddressID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses/"+validAddressID, nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAddress_Handler_BadUUID_Returns400(t *testing.T) {
	addresses := new(mockAddressRepo)
	router := setupAddressRouter(testAddressHandler(addresses))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses/nope", nil)
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
