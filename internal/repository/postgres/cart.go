package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/pkg/database"
)

// CartRepository implements repository.CartRepository using PostgreSQL.
// Line prices and product descriptors are resolved from the catalog on every
// load so the cart always reflects current pricing.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreate loads the customer's cart, creating an empty one on first use.
func (r *CartRepository) GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	// The upsert keeps this a single round trip; the no-op update makes
	// RETURNING yield the existing row on conflict.
	cartQuery := `
		INSERT INTO carts (id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id, customer_id, created_at, updated_at`

	now := time.Now().UTC()
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, uuid.New().String(), customerID, now).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	itemsQuery := `
		SELECT ci.id, ci.variant_id, p.name, v.sku, v.color_name, v.size_name,
		       COALESCE(p.discount_price, p.base_price) + v.price_adjustment AS unit_price,
		       ci.quantity, ci.updated_at
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC`

	rows, err := r.pool.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.VariantID,
			&item.ProductName,
			&item.SKU,
			&item.ColorName,
			&item.SizeName,
			&item.UnitPrice,
			&item.Quantity,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart item rows: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	return &cart, nil
}

// UpsertItem inserts a line or replaces the quantity of an existing one.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, variantID string, quantity int) error {
	query := `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, uuid.New().String(), cartID, variantID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}

	return nil
}

// RemoveItem deletes a line. Deleting an absent line succeeds so removal is
// idempotent.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, variantID string) error {
	query := `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND variant_id = $2`

	_, err := r.pool.Exec(ctx, query, cartID, variantID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	return nil
}
