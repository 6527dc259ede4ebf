package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber_Format(t *testing.T) {
	n := NewOrderNumber()

	assert.True(t, strings.HasPrefix(n, "ORD-"))
	assert.Len(t, n, 12)
	assert.Equal(t, strings.ToUpper(n), n)
}

func TestNewOrderNumber_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}

func TestAddressSnapshot_CopiesOnlySnapshotFields(t *testing.T) {
	a := &Address{
		ID:           "addr-1",
		CustomerID:   "cust-1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "12 Analytical Way",
		AddressLine2: "Unit 3",
		City:         "London",
		State:        "LDN",
		PostalCode:   "EC1A",
		Country:      "GB",
		Phone:        "+44 20 0000 0000",
		Company:      "Engines Ltd",
	}

	snap := a.Snapshot()

	assert.Equal(t, AddressSnapshot{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "12 Analytical Way",
		AddressLine2: "Unit 3",
		City:         "London",
		State:        "LDN",
		PostalCode:   "EC1A",
		Country:      "GB",
	}, snap)
}

func TestAddressSnapshot_IndependentOfSource(t *testing.T) {
	a := &Address{FirstName: "Ada", City: "London"}
	snap := a.Snapshot()

	a.FirstName = "Changed"
	a.City = "Elsewhere"

	assert.Equal(t, "Ada", snap.FirstName)
	assert.Equal(t, "London", snap.City)
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCanceled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.from}
		assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
