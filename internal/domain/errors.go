package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for checkout preconditions.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidAddress = errors.New("address not found or not owned by customer")
)

// OutOfStockError reports a cart line whose requested quantity exceeds the
// variant's available stock.
type OutOfStockError struct {
	VariantID string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// ExceedsStockError reports an add-to-cart merge whose combined quantity
// would overflow available stock. The existing line is left unchanged.
type ExceedsStockError struct {
	VariantID string
	InCart    int
	Requested int
	Available int
}

func (e *ExceedsStockError) Error() string {
	return fmt.Sprintf("combined quantity exceeds stock for variant %s: %d in cart + %d requested, available %d",
		e.VariantID, e.InCart, e.Requested, e.Available)
}

// Coupon error codes.
const (
	CouponErrNotFound     = "not_found"
	CouponErrInvalid      = "invalid"
	CouponErrBelowMinimum = "below_minimum"
)

// CouponError reports why a coupon code could not be applied.
type CouponError struct {
	Code    string
	Message string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %s: %s", e.Code, e.Message)
}

// NewCouponError constructs a CouponError with the given code and message.
func NewCouponError(code, message string) *CouponError {
	return &CouponError{Code: code, Message: message}
}
