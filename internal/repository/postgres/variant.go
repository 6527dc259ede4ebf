package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/pkg/database"
	apperrors "github.com/driftwear/storefront/pkg/errors"
)

// VariantRepository implements repository.VariantRepository using PostgreSQL.
type VariantRepository struct {
	pool database.DBTX
}

// NewVariantRepository creates a new PostgreSQL-backed variant repository.
func NewVariantRepository(pool database.DBTX) *VariantRepository {
	return &VariantRepository{pool: pool}
}

// GetByID retrieves an active variant with its final price resolved from the
// product's current price plus the variant adjustment.
func (r *VariantRepository) GetByID(ctx context.Context, id string) (*domain.Variant, error) {
	query := `
		SELECT v.id, v.product_id, p.name, v.sku, v.color_name, v.size_name,
		       COALESCE(p.discount_price, p.base_price) + v.price_adjustment AS final_price,
		       v.stock_quantity, v.is_active, v.updated_at
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND v.is_active AND p.is_active`

	var v domain.Variant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.ProductID,
		&v.ProductName,
		&v.SKU,
		&v.ColorName,
		&v.SizeName,
		&v.FinalPrice,
		&v.StockQty,
		&v.IsActive,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("variant", id)
		}
		return nil, fmt.Errorf("get variant by id: %w", err)
	}

	return &v, nil
}
