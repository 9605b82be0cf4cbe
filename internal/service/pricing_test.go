package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
)

func TestComputePrice(t *testing.T) {
	tests := map[string]struct {
		in        PriceInput
		tax       float64
		price     int64
		sale      int64
		effective float64
	}{
		"no discount": {
			in: PriceInput{CostCents: 1000, Margin: 20}, tax: 10,
			price: 1320, sale: 1320, effective: 0,
		},
		"discount above floor": {
			in: PriceInput{CostCents: 1000, Margin: 20, Discount: 10}, tax: 10,
			price: 1320, sale: 1188, effective: 10,
		},
		"discount clamped to floor": {
			in: PriceInput{CostCents: 1000, Margin: 20, Discount: 50}, tax: 10,
			price: 1320, sale: 1100, effective: 16.67,
		},
		"zero margin any discount hits floor": {
			in: PriceInput{CostCents: 1000, Margin: 0, Discount: 30}, tax: 10,
			price: 1100, sale: 1100, effective: 0,
		},
		"rounds half up to cents": {
			in: PriceInput{CostCents: 1, Margin: 50}, tax: 0,
			price: 2, sale: 2, effective: 0,
		},
		"fractional tax rate": {
			in: PriceInput{CostCents: 999, Margin: 15}, tax: 8.25,
			price: 1244, sale: 1244, effective: 0,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ComputePrice(tc.in, tc.tax)
			require.NoError(t, err)
			assert.Equal(t, tc.price, got.PriceCents)
			assert.Equal(t, tc.sale, got.SalePriceCents)
			assert.InDelta(t, tc.effective, got.EffectiveDiscount, 0.001)
			assert.GreaterOrEqual(t, got.SalePriceCents, got.FloorCents)
		})
	}
}

func TestComputePrice_Invalid(t *testing.T) {
	tests := map[string]PriceInput{
		"zero cost":         {CostCents: 0, Margin: 10},
		"negative margin":   {CostCents: 100, Margin: -1},
		"negative discount": {CostCents: 100, Discount: -5},
		"full discount":     {CostCents: 100, Discount: 100},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ComputePrice(in, 10)
			assert.ErrorIs(t, err, ErrInvalidPricing)
		})
	}
}

func TestShippingFee(t *testing.T) {
	tests := map[string]struct {
		subtotal int64
		want     int64
	}{
		"empty cart":      {subtotal: 0, want: 0},
		"below threshold": {subtotal: 9999, want: 500},
		"at threshold":    {subtotal: 10000, want: 0},
		"above threshold": {subtotal: 25000, want: 0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, testRules.ShippingFee(tc.subtotal))
		})
	}
	assert.Equal(t, int64(500), PricingRules{ShippingFeeCents: 500}.ShippingFee(1_000_000), "no threshold means always charged")
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, CanTransition(repository.OrderPending, repository.OrderPaid))
	assert.True(t, CanTransition(repository.OrderPaid, repository.OrderOnRoute))
	assert.True(t, CanTransition(repository.OrderOnRoute, repository.OrderDelivered))
	assert.True(t, CanTransition(repository.OrderPending, repository.OrderCancelled))
	assert.True(t, CanTransition(repository.OrderPaid, repository.OrderCancelled))

	assert.False(t, CanTransition(repository.OrderPending, repository.OrderOnRoute))
	assert.False(t, CanTransition(repository.OrderOnRoute, repository.OrderCancelled))
	assert.False(t, CanTransition(repository.OrderDelivered, repository.OrderCancelled))
	assert.False(t, CanTransition(repository.OrderCancelled, repository.OrderPaid))

	assert.True(t, IsTerminal(repository.OrderDelivered))
	assert.True(t, IsTerminal(repository.OrderCancelled))
	assert.False(t, IsTerminal(repository.OrderPaid))
	assert.Equal(t, []repository.OrderStatus{repository.OrderDelivered}, NextStatuses(repository.OrderOnRoute))
}
