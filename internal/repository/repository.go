package repository

import (
	"context"

	"github.com/driftwear/storefront/internal/domain"
)

// VariantRepository provides read-only catalog lookups.
type VariantRepository interface {
	// GetByID retrieves an active variant with its resolved final price.
	GetByID(ctx context.Context, id string) (*domain.Variant, error)
}

// AddressRepository manages a customer's stored addresses.
type AddressRepository interface {
	// Create inserts a new address for the customer.
	Create(ctx context.Context, address *domain.Address) error

	// GetByID retrieves an address owned by the given customer.
	GetByID(ctx context.Context, id, customerID string) (*domain.Address, error)

	// ListByCustomer returns all addresses for a customer, default first.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error)
}

// CartRepository manages carts and their lines. Line descriptors and prices
// are resolved from the catalog on every load.
type CartRepository interface {
	// GetOrCreate loads the customer's cart, creating an empty one if absent.
	GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error)

	// UpsertItem inserts a line or replaces the quantity of an existing one.
	UpsertItem(ctx context.Context, cartID, variantID string, quantity int) error

	// RemoveItem deletes a line. Removing an absent line is not an error.
	RemoveItem(ctx context.Context, cartID, variantID string) error
}

// CouponRepository provides coupon lookups. Usage increments happen only
// inside the order commit transaction, never through this interface.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// CommitInput carries everything the order commit transaction persists.
type CommitInput struct {
	Order      *domain.Order
	CartID     string
	CouponCode string

	// FallbackQuote replaces the order totals when the coupon fails
	// re-validation under the row lock. Required whenever CouponCode is set.
	FallbackQuote *domain.Quote
}

// CommitResult reports what the commit transaction actually did.
type CommitResult struct {
	// CouponApplied is false when the coupon became invalid under lock and
	// the discount was dropped.
	CouponApplied bool
}

// OrderRepository persists orders and runs the atomic commit transaction.
type OrderRepository interface {
	// Commit atomically verifies and decrements stock, increments coupon
	// usage, inserts the order with its items, and clears the cart. Any
	// failure leaves all state untouched.
	Commit(ctx context.Context, input *CommitInput) (*CommitResult, error)

	// GetByID retrieves an order with its items, scoped to the customer.
	GetByID(ctx context.Context, id, customerID string) (*domain.Order, error)

	// GetByNumber retrieves an order by its order number.
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// ListByCustomer returns a page of the customer's orders, newest first,
	// along with the total count.
	ListByCustomer(ctx context.Context, customerID string, page, perPage int) ([]domain.Order, int, error)
}
