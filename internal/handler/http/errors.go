package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/pkg/httputil"
)

// writeDomainError maps the checkout domain's typed errors onto the JSON
// error envelope. Anything it does not recognize falls through to the shared
// error writer.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var (
		oos     *domain.OutOfStockError
		exceeds *domain.ExceedsStockError
		cerr    *domain.CouponError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "EMPTY_CART", Message: "cart is empty"},
		})

	case errors.Is(err, domain.ErrInvalidAddress):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_ADDRESS", Message: "address not found or not owned by customer"},
		})

	case errors.As(err, &oos):
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "OUT_OF_STOCK", Message: oos.Error()},
		})

	case errors.As(err, &exceeds):
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "EXCEEDS_STOCK", Message: exceeds.Error()},
		})

	case errors.As(err, &cerr):
		status := http.StatusBadRequest
		code := "COUPON_INVALID"
		switch cerr.Code {
		case domain.CouponErrNotFound:
			status = http.StatusNotFound
			code = "COUPON_NOT_FOUND"
		case domain.CouponErrBelowMinimum:
			code = "COUPON_BELOW_MINIMUM"
		}
		httputil.WriteJSON(w, status, httputil.Response{
			Error: &httputil.ErrorResponse{Code: code, Message: cerr.Message},
		})

	default:
		httputil.WriteError(w, r, err, logger)
	}
}
