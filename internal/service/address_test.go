package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/driftwear/storefront/internal/domain"
	apperrors "github.com/driftwear/storefront/pkg/errors"
)

func TestAddressService_CreateAddress(t *testing.T) {
	repo := new(mockAddressRepository)
	svc := NewAddressService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Address")).Return(nil)

	address, err := svc.CreateAddress(ctx, "cust-1", CreateAddressInput{
		FirstName:    "Ada",
		LastName:     "Byrne",
		AddressLine1: "1 Mill Lane",
		City:         "Portland",
		State:        "OR",
		PostalCode:   "97201",
		Country:      "US",
		IsDefault:    true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, address.ID)
	assert.Equal(t, "cust-1", address.CustomerID)
	assert.Equal(t, "Portland", address.City)
	assert.True(t, address.IsDefault)
	assert.NotZero(t, address.CreatedAt)
	repo.AssertExpectations(t)
}

func TestAddressService_GetAddress_NotFound(t *testing.T) {
	repo := new(mockAddressRepository)
	svc := NewAddressService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "addr-x", "cust-1").
		Return(nil, apperrors.NotFound("address", "addr-x"))

	address, err := svc.GetAddress(ctx, "cust-1", "addr-x")
	assert.Nil(t, address)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddressService_ListAddresses(t *testing.T) {
	repo := new(mockAddressRepository)
	svc := NewAddressService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("ListByCustomer", ctx, "cust-1").
		Return([]domain.Address{*testAddress("addr-1"), *testAddress("addr-2")}, nil)

	addresses, err := svc.ListAddresses(ctx, "cust-1")
	require.NoError(t, err)
	assert.Len(t, addresses, 2)
}
