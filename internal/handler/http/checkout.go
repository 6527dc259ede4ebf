package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/driftwear/storefront/internal/service"
	"github.com/driftwear/storefront/pkg/httputil"
	"github.com/driftwear/storefront/pkg/middleware"
	"github.com/driftwear/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout and order endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// PreviewRequest is the JSON request body for a checkout preview.
type PreviewRequest struct {
	CouponCode string `json:"coupon_code" validate:"omitempty,max=50"`
}

// ApplyCouponRequest is the JSON request body for a coupon preview.
type ApplyCouponRequest struct {
	CouponCode string `json:"coupon_code" validate:"required,max=50"`
}

// CommitRequest is the JSON request body for committing a checkout.
type CommitRequest struct {
	BillingAddressID  string `json:"billing_address_id" validate:"required,uuid"`
	ShippingAddressID string `json:"shipping_address_id" validate:"required,uuid"`
	CouponCode        string `json:"coupon_code" validate:"omitempty,max=50"`
}

// --- Handlers ---

// PreviewCheckout handles POST /api/v1/checkout/preview
func (h *CheckoutHandler) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Preview without a body prices the cart with no coupon.
		req = PreviewRequest{}
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	preview, err := h.service.PreviewCheckout(r.Context(), customerID, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: preview})
}

// ApplyCoupon handles POST /api/v1/checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ApplyCouponRequest
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

	result, err := h.service.ApplyCouponPreview(r.Context(), customerID, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// CommitCheckout handles POST /api/v1/checkout
func (h *CheckoutHandler) CommitCheckout(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CommitRequest
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

	outcome, err := h.service.CommitCheckout(r.Context(), customerID, service.CommitInput{
		BillingAddressID:  req.BillingAddressID,
		ShippingAddressID: req.ShippingAddressID,
		CouponCode:        req.CouponCode,
		IdempotencyKey:    r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if outcome.Replayed {
		status = http.StatusOK
	}

	httputil.WriteJSON(w, status, httputil.Response{Data: outcome})
}

// ListOrders handles GET /api/v1/orders
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	page := 1
	perPage := 20

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		page = p
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		pp, err := strconv.Atoi(v)
		if err != nil || pp < 1 || pp > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		perPage = pp
	}

	orders, total, err := h.service.ListOrders(r.Context(), customerID, page, perPage)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.UserIDFromContext(r.Context())

	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), customerID, orderID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
