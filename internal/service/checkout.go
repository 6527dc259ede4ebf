package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/event"
	"github.com/driftwear/storefront/internal/repository"
	apperrors "github.com/driftwear/storefront/pkg/errors"
)

// orderNumberRetries bounds regeneration attempts on an order number
// collision.
const orderNumberRetries = 3

// CheckoutService orchestrates pricing previews and the atomic order commit.
type CheckoutService struct {
	carts       repository.CartRepository
	addresses   repository.AddressRepository
	coupons     repository.CouponRepository
	orders      repository.OrderRepository
	idempotency IdempotencyStore
	producer    *event.Producer
	policy      domain.PricingPolicy
	logger      *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	coupons repository.CouponRepository,
	orders repository.OrderRepository,
	idempotency IdempotencyStore,
	producer *event.Producer,
	policy domain.PricingPolicy,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		addresses:   addresses,
		coupons:     coupons,
		orders:      orders,
		idempotency: idempotency,
		producer:    producer,
		policy:      policy,
		logger:      logger,
	}
}

// Preview holds a side-effect-free priced breakdown of the current cart.
type Preview struct {
	Quote         domain.Quote `json:"quote"`
	ItemCount     int          `json:"item_count"`
	CouponCode    string       `json:"coupon_code,omitempty"`
	CouponWarning string       `json:"coupon_warning,omitempty"`
}

// CommitInput holds the parameters for committing a checkout.
type CommitInput struct {
	BillingAddressID  string
	ShippingAddressID string
	CouponCode        string
	IdempotencyKey    string
}

// CommitOutcome is the result of a successful commit.
type CommitOutcome struct {
	Order *domain.Order `json:"order"`
	// CouponWarning is set when a supplied coupon could not be applied and
	// the order committed without the discount.
	CouponWarning string `json:"coupon_warning,omitempty"`
	// Replayed is true when an idempotency key matched a previous commit and
	// the stored order was returned instead of creating a new one.
	Replayed bool `json:"replayed,omitempty"`
}

// PreviewCheckout prices the current cart without side effects. An invalid
// coupon yields a warning and a zero discount rather than an error.
func (s *CheckoutService) PreviewCheckout(ctx context.Context, customerID, couponCode string) (*Preview, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for preview: %w", err)
	}

	subtotal := cart.TotalAmount()

	preview := &Preview{ItemCount: cart.ItemCount()}

	var discount int64
	if couponCode != "" {
		result, cerr, err := s.evaluateCoupon(ctx, couponCode, subtotal)
		if err != nil {
			return nil, err
		}
		if cerr != nil {
			preview.CouponWarning = cerr.Message
		} else {
			discount = result.DiscountAmount
			preview.CouponCode = result.Code
		}
	}

	preview.Quote = s.policy.Price(subtotal, discount)

	return preview, nil
}

// ApplyCouponPreview evaluates a coupon against the current cart. It never
// increments the coupon's usage counter; only a committed order does that.
func (s *CheckoutService) ApplyCouponPreview(ctx context.Context, customerID, couponCode string) (*domain.DiscountResult, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for coupon preview: %w", err)
	}

	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	result, cerr, err := s.evaluateCoupon(ctx, couponCode, cart.TotalAmount())
	if err != nil {
		return nil, err
	}
	if cerr != nil {
		return nil, cerr
	}

	return result, nil
}

// CommitCheckout converts the customer's cart into a persisted order. Stock
// verification, stock decrement, coupon usage, order insertion, and cart
// clearing execute as one transaction; any failure leaves all state as it
// was. An invalid coupon degrades to a committed order without the discount
// plus a warning.
func (s *CheckoutService) CommitCheckout(ctx context.Context, customerID string, input CommitInput) (*CommitOutcome, error) {
	// Double-submit protection: a repeated idempotency key returns the order
	// the first submission created.
	if input.IdempotencyKey != "" {
		orderID, err := s.idempotency.Get(ctx, input.IdempotencyKey)
		if err != nil {
			s.logger.WarnContext(ctx, "idempotency store lookup failed, proceeding",
				slog.String("error", err.Error()),
			)
		} else if orderID != "" {
			order, err := s.orders.GetByID(ctx, orderID, customerID)
			if err != nil {
				return nil, fmt.Errorf("load order for idempotency replay: %w", err)
			}
			checkoutCommitsTotal.WithLabelValues(outcomeIdempotentHit).Inc()
			return &CommitOutcome{Order: order, Replayed: true}, nil
		}
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for commit: %w", err)
	}
	if cart.IsEmpty() {
		checkoutCommitsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, domain.ErrEmptyCart
	}

	billing, err := s.addresses.GetByID(ctx, input.BillingAddressID, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			checkoutCommitsTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, domain.ErrInvalidAddress
		}
		return nil, fmt.Errorf("get billing address: %w", err)
	}
	shipping, err := s.addresses.GetByID(ctx, input.ShippingAddressID, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			checkoutCommitsTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, domain.ErrInvalidAddress
		}
		return nil, fmt.Errorf("get shipping address: %w", err)
	}

	subtotal := cart.TotalAmount()

	// First coupon pass, outside the transaction. An invalid coupon degrades
	// to no discount with a warning; the commit proceeds.
	var (
		discount      int64
		couponCode    string
		couponWarning string
	)
	if input.CouponCode != "" {
		result, cerr, err := s.evaluateCoupon(ctx, input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		if cerr != nil {
			couponWarning = cerr.Message
		} else {
			discount = result.DiscountAmount
			couponCode = result.Code
		}
	}

	quote := s.policy.Price(subtotal, discount)
	fallback := s.policy.Price(subtotal, 0)

	order := s.buildOrder(customerID, cart, billing, shipping, couponCode, quote)

	result, err := s.commitWithRetry(ctx, &repository.CommitInput{
		Order:         order,
		CartID:        cart.ID,
		CouponCode:    couponCode,
		FallbackQuote: &fallback,
	})
	if err != nil {
		s.countCommitFailure(err)
		return nil, err
	}

	if couponCode != "" && !result.CouponApplied {
		// The coupon passed the first pass but failed re-validation under
		// the row lock; the order committed without the discount.
		couponWarning = "coupon could no longer be applied and was removed from the order"
	}
	if couponWarning != "" {
		couponWarningsTotal.Inc()
	}

	checkoutCommitsTotal.WithLabelValues(outcomeCommitted).Inc()

	s.afterCommit(ctx, order, cart, result.CouponApplied)

	if input.IdempotencyKey != "" {
		if err := s.idempotency.Set(ctx, input.IdempotencyKey, order.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to record idempotency key",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order committed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Bool("coupon_applied", result.CouponApplied),
	)

	return &CommitOutcome{Order: order, CouponWarning: couponWarning}, nil
}

// GetOrder retrieves one of the customer's orders with its items.
func (s *CheckoutService) GetOrder(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID, customerID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of the customer's order history.
func (s *CheckoutService) ListOrders(ctx context.Context, customerID string, page, perPage int) ([]domain.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	orders, total, err := s.orders.ListByCustomer(ctx, customerID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// evaluateCoupon runs the coupon validity predicate and discount computation.
// Domain-level coupon failures come back as the middle return value;
// infrastructure failures as the last.
func (s *CheckoutService) evaluateCoupon(ctx context.Context, code string, subtotal int64) (*domain.DiscountResult, *domain.CouponError, error) {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		var cerr *domain.CouponError
		if errors.As(err, &cerr) {
			return nil, cerr, nil
		}
		return nil, nil, fmt.Errorf("get coupon: %w", err)
	}

	if cerr := coupon.Validate(subtotal, time.Now().UTC()); cerr != nil {
		return nil, cerr, nil
	}

	return &domain.DiscountResult{
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountAmount: coupon.Discount(subtotal),
	}, nil, nil
}

// buildOrder snapshots the cart and addresses into an immutable order value.
func (s *CheckoutService) buildOrder(
	customerID string,
	cart *domain.Cart,
	billing, shipping *domain.Address,
	couponCode string,
	quote domain.Quote,
) *domain.Order {
	now := time.Now().UTC()
	orderID := uuid.New().String()

	items := make([]domain.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = domain.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			SKU:         line.SKU,
			ColorName:   line.ColorName,
			SizeName:    line.SizeName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.UnitPrice * int64(line.Quantity),
		}
	}

	return &domain.Order{
		ID:              orderID,
		OrderNumber:     domain.NewOrderNumber(),
		CustomerID:      customerID,
		Status:          domain.OrderStatusPending,
		Subtotal:        quote.Subtotal,
		TaxAmount:       quote.TaxAmount,
		ShippingCost:    quote.ShippingCost,
		DiscountAmount:  quote.DiscountAmount,
		TotalAmount:     quote.TotalAmount,
		CouponCode:      couponCode,
		BillingAddress:  billing.Snapshot(),
		ShippingAddress: shipping.Snapshot(),
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// commitWithRetry runs the commit transaction, regenerating the order number
// on the rare unique-constraint collision.
func (s *CheckoutService) commitWithRetry(ctx context.Context, input *repository.CommitInput) (*repository.CommitResult, error) {
	var lastErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		result, err := s.orders.Commit(ctx, input)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
		input.Order.OrderNumber = domain.NewOrderNumber()
	}
	return nil, fmt.Errorf("commit order after %d order number attempts: %w", orderNumberRetries, lastErr)
}

// afterCommit publishes domain events. Failures are logged, never surfaced;
// the order is already durable.
func (s *CheckoutService) afterCommit(ctx context.Context, order *domain.Order, cart *domain.Cart, couponApplied bool) {
	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishStockDecremented(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock.decremented events",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if couponApplied {
		if err := s.producer.PublishCouponRedeemed(ctx, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish coupon.redeemed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishCartCleared(ctx, cart.ID, cart.CustomerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CheckoutService) countCommitFailure(err error) {
	var oos *domain.OutOfStockError
	switch {
	case errors.As(err, &oos):
		checkoutCommitsTotal.WithLabelValues(outcomeOutOfStock).Inc()
	case errors.Is(err, apperrors.ErrConflict):
		checkoutCommitsTotal.WithLabelValues(outcomeConflict).Inc()
	default:
		checkoutCommitsTotal.WithLabelValues(outcomeError).Inc()
	}
}
