package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/event"
	"github.com/driftwear/storefront/internal/repository"
	apperrors "github.com/driftwear/storefront/pkg/errors"
)

// AddItemInput holds the parameters for adding a line to the cart.
type AddItemInput struct {
	VariantID string
	Quantity  int
}

// CartService implements the business logic for cart operations.
type CartService struct {
	carts    repository.CartRepository
	variants repository.VariantRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	variants repository.VariantRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		variants: variants,
		producer: producer,
		logger:   logger,
	}
}

// GetCart retrieves the customer's cart, creating an empty one on first use.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem adds a line to the customer's cart. When a line for the variant
// already exists, the quantities merge and the combined quantity is checked
// against stock; an overflow fails without touching the existing line.
func (s *CartService) AddItem(ctx context.Context, customerID string, input AddItemInput) (*domain.Cart, error) {
	if input.Quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if input.Quantity > domain.MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxQuantityPerLine))
	}

	variant, err := s.variants.GetByID(ctx, input.VariantID)
	if err != nil {
		return nil, fmt.Errorf("get variant for add: %w", err)
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for add: %w", err)
	}

	newQty := input.Quantity
	if idx := cart.FindItemIndex(input.VariantID); idx >= 0 {
		combined := cart.Items[idx].Quantity + input.Quantity
		if combined > variant.StockQty {
			return nil, &domain.ExceedsStockError{
				VariantID: variant.ID,
				InCart:    cart.Items[idx].Quantity,
				Requested: input.Quantity,
				Available: variant.StockQty,
			}
		}
		if combined > domain.MaxQuantityPerLine {
			return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", domain.MaxQuantityPerLine))
		}
		newQty = combined
	} else if input.Quantity > variant.StockQty {
		return nil, &domain.OutOfStockError{
			VariantID: variant.ID,
			Requested: input.Quantity,
			Available: variant.StockQty,
		}
	}

	if err := s.carts.UpsertItem(ctx, cart.ID, variant.ID, newQty); err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	cart, err = s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("cart_id", cart.ID),
		slog.String("variant_id", variant.ID),
		slog.Int("quantity", newQty),
	)

	return cart, nil
}

// UpdateItemQuantity sets a line's quantity. Zero or negative removes the
// line; removal of an absent line succeeds so the operation is idempotent.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, variantID string, quantity int) (*domain.Cart, error) {
	if quantity > domain.MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxQuantityPerLine))
	}

	if quantity <= 0 {
		return s.RemoveItem(ctx, customerID, variantID)
	}

	variant, err := s.variants.GetByID(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("get variant for update: %w", err)
	}

	if quantity > variant.StockQty {
		return nil, &domain.OutOfStockError{
			VariantID: variant.ID,
			Requested: quantity,
			Available: variant.StockQty,
		}
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for update: %w", err)
	}

	if err := s.carts.UpsertItem(ctx, cart.ID, variantID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item quantity: %w", err)
	}

	cart, err = s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	return cart, nil
}

// RemoveItem removes a line from the cart. Removing a line that is already
// gone succeeds with the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, customerID, variantID string) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for remove: %w", err)
	}

	if err := s.carts.RemoveItem(ctx, cart.ID, variantID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	cart, err = s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	return cart, nil
}

func (s *CartService) publishCartUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}
}
