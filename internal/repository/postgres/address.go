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

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	pool database.DBTX
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool database.DBTX) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts a new address for the customer.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	query := `
		INSERT INTO addresses (id, customer_id, first_name, last_name, address_line_1, address_line_2,
		                       city, state, postal_code, country, phone, company, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.CustomerID,
		a.FirstName,
		a.LastName,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.State,
		a.PostalCode,
		a.Country,
		a.Phone,
		a.Company,
		a.IsDefault,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}

	return nil
}

// GetByID retrieves an address scoped to the owning customer. An address
// belonging to another customer behaves exactly like a missing one.
func (r *AddressRepository) GetByID(ctx context.Context, id, customerID string) (*domain.Address, error) {
	query := `
		SELECT id, customer_id, first_name, last_name, address_line_1, address_line_2,
		       city, state, postal_code, country, phone, company, is_default, created_at, updated_at
		FROM addresses
		WHERE id = $1 AND customer_id = $2`

	var a domain.Address
	err := r.pool.QueryRow(ctx, query, id, customerID).Scan(
		&a.ID,
		&a.CustomerID,
		&a.FirstName,
		&a.LastName,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.Phone,
		&a.Company,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("get address by id: %w", err)
	}

	return &a, nil
}

// ListByCustomer returns all addresses for a customer, default address first.
func (r *AddressRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error) {
	query := `
		SELECT id, customer_id, first_name, last_name, address_line_1, address_line_2,
		       city, state, postal_code, country, phone, company, is_default, created_at, updated_at
		FROM addresses
		WHERE customer_id = $1
		ORDER BY is_default DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID,
			&a.CustomerID,
			&a.FirstName,
			&a.LastName,
			&a.AddressLine1,
			&a.AddressLine2,
			&a.City,
			&a.State,
			&a.PostalCode,
			&a.Country,
			&a.Phone,
			&a.Company,
			&a.IsDefault,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	if addresses == nil {
		addresses = []domain.Address{}
	}

	return addresses, nil
}
