package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driftwear/storefront/internal/service"
	"github.com/driftwear/storefront/pkg/httputil"
	"github.com/driftwear/storefront/pkg/middleware"
	"github.com/driftwear/storefront/pkg/validator"
)

// AddressHandler handles HTTP requests for the address book.
type AddressHandler struct {
	service *service.AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateAddressRequest is the JSON request body for creating an address.
type CreateAddressRequest struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line_2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"max=32"`
	Company      string `json:"company" validate:"max=100"`
	IsDefault    bool   `json:"is_default"`
}

// CreateAddress handles POST /api/v1/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.service.CreateAddress(r.Context(), customerID, service.CreateAddressInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		Company:      req.Company,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: address})
}

// ListAddresses handles GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	addresses, err := h.service.ListAddresses(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addresses})
}

// GetAddress handles GET /api/v1/addresses/{id}
func (h *AddressHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.GetAddress(r.Context(), customerID, id.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}
