package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/repository"
)

// CreateAddressInput holds the parameters for creating an address.
type CreateAddressInput struct {
	FirstName    string
	LastName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
	Company      string
	IsDefault    bool
}

// AddressService implements the minimal address book the checkout needs.
type AddressService struct {
	repo   repository.AddressRepository
	logger *slog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(repo repository.AddressRepository, logger *slog.Logger) *AddressService {
	return &AddressService{repo: repo, logger: logger}
}

// CreateAddress stores a new address for the customer.
func (s *AddressService) CreateAddress(ctx context.Context, customerID string, input CreateAddressInput) (*domain.Address, error) {
	now := time.Now().UTC()
	address := &domain.Address{
		ID:           uuid.New().String(),
		CustomerID:   customerID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		Phone:        input.Phone,
		Company:      input.Company,
		IsDefault:    input.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	s.logger.InfoContext(ctx, "address created",
		slog.String("address_id", address.ID),
	)

	return address, nil
}

// GetAddress retrieves an address owned by the customer.
func (s *AddressService) GetAddress(ctx context.Context, customerID, id string) (*domain.Address, error) {
	address, err := s.repo.GetByID(ctx, id, customerID)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return address, nil
}

// ListAddresses returns all addresses for the customer.
func (s *AddressService) ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	addresses, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}
