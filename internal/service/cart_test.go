package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddAndTotals(t *testing.T) {
	store := newTestStore(t)
	products := NewProductService(store, newTestCache(), testRules, nil)
	cart := NewCartService(store, testRules)
	ctx := context.Background()
	u := seedCustomer(t, store, "ada@example.com")
	mug := seedCatalogProduct(t, products, "Mug", 1000, 10)

	view, err := cart.Add(ctx, u.ID, mug.ID, 2)
	require.NoError(t, err)
	view, err = cart.Add(ctx, u.ID, mug.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity, "quantity accumulates")
	assert.Equal(t, int64(1320), view.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(6600), view.SubtotalCents)
	assert.Equal(t, int64(500), view.ShippingCents)
	assert.Equal(t, int64(7100), view.TotalCents)
	assert.Equal(t, "USD", view.Currency)
	assert.True(t, view.Purchasable)

	view, err = cart.SetQuantity(ctx, u.ID, mug.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(10560), view.SubtotalCents)
	assert.Equal(t, int64(0), view.ShippingCents, "free shipping above threshold")

	view, err = cart.SetQuantity(ctx, u.ID, mug.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.False(t, view.Purchasable)
}

func TestCart_Limits(t *testing.T) {
	store := newTestStore(t)
	products := NewProductService(store, newTestCache(), testRules, nil)
	cart := NewCartService(store, testRules)
	ctx := context.Background()
	u := seedCustomer(t, store, "ada@example.com")
	plenty := seedCatalogProduct(t, products, "Pencil", 10, 500)
	scarce := seedCatalogProduct(t, products, "Vase", 3000, 2)
	soldOut := seedCatalogProduct(t, products, "Clock", 3000, 0)
	hidden := seedCatalogProduct(t, products, "Prototype", 3000, 9)
	_, err := products.SetAvailability(ctx, 0, hidden.ID, false)
	require.NoError(t, err)

	_, err = cart.Add(ctx, u.ID, plenty.ID, 98)
	require.NoError(t, err)

	tests := map[string]struct {
		product int64
		qty     int
		want    error
	}{
		"line limit":       {product: plenty.ID, qty: 2, want: ErrQuantityLimit},
		"huge request":     {product: plenty.ID, qty: math.MaxInt, want: ErrQuantityLimit},
		"huge fresh line":  {product: scarce.ID, qty: math.MaxInt - 1, want: ErrQuantityLimit},
		"above stock":      {product: scarce.ID, qty: 3, want: ErrInsufficientStock},
		"sold out":         {product: soldOut.ID, qty: 1, want: ErrProductUnavailable},
		"unavailable":      {product: hidden.ID, qty: 1, want: ErrProductUnavailable},
		"missing product":  {product: 999, qty: 1, want: ErrProductNotFound},
		"zero quantity":    {product: scarce.ID, qty: 0, want: ErrInvalidInput},
		"negative request": {product: scarce.ID, qty: -1, want: ErrInvalidInput},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cart.Add(ctx, u.ID, tc.product, tc.qty)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	view, err := cart.View(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 98, view.Lines[0].Quantity, "rejected adds leave the line untouched")

	_, err = cart.Remove(ctx, u.ID, scarce.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCart_StaleLinesBlockCheckout(t *testing.T) {
	store := newTestStore(t)
	products := NewProductService(store, newTestCache(), testRules, nil)
	cart := NewCartService(store, testRules)
	ctx := context.Background()
	u := seedCustomer(t, store, "ada@example.com")
	a := seedCatalogProduct(t, products, "Lamp", 1000, 3)
	b := seedCatalogProduct(t, products, "Rug", 2000, 3)

	_, err := cart.Add(ctx, u.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = cart.Add(ctx, u.ID, b.ID, 3)
	require.NoError(t, err)

	_, err = products.AdjustStock(ctx, 0, b.ID, -1)
	require.NoError(t, err)

	view, err := cart.View(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.False(t, view.Purchasable)
	assert.Equal(t, int64(1320), view.SubtotalCents, "lines beyond stock are excluded")
	assert.Equal(t, 1, view.ItemCount)

	require.NoError(t, cart.Clear(ctx, u.ID))
	view, err = cart.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestWishlist(t *testing.T) {
	store := newTestStore(t)
	products := NewProductService(store, newTestCache(), testRules, nil)
	cart := NewCartService(store, testRules)
	wishlist := NewWishlistService(store, cart)
	ctx := context.Background()
	u := seedCustomer(t, store, "ada@example.com")
	p := seedCatalogProduct(t, products, "Teapot", 1500, 4)

	require.NoError(t, wishlist.Add(ctx, u.ID, p.ID))
	require.NoError(t, wishlist.Add(ctx, u.ID, p.ID), "adding twice is idempotent")
	assert.ErrorIs(t, wishlist.Add(ctx, u.ID, 999), ErrProductNotFound)

	entries, err := wishlist.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, p.ID, entries[0].Product.ID)
	assert.True(t, entries[0].Product.Available)

	view, err := wishlist.MoveToCart(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)

	entries, err = wishlist.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = wishlist.MoveToCart(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, wishlist.Remove(ctx, u.ID, p.ID), ErrNotFound)
}

func TestAddresses(t *testing.T) {
	store := newTestStore(t)
	addresses := NewAddressService(store)
	ctx := context.Background()
	u := seedCustomer(t, store, "ada@example.com")
	other := seedCustomer(t, store, "bob@example.com")

	input := AddressInput{FullName: "Ada", Line1: "1 Main St", City: "London", PostalCode: "N1", Country: "gb"}
	first, err := addresses.Save(ctx, u.ID, input)
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address becomes default")
	assert.Equal(t, "GB", first.Country)

	input.Line1 = "2 High St"
	input.IsDefault = true
	second, err := addresses.Save(ctx, u.ID, input)
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	list, err := addresses.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			assert.Equal(t, second.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	_, err = addresses.Get(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound, "addresses are user-owned")
	assert.ErrorIs(t, addresses.Delete(ctx, other.ID, first.ID), ErrAddressNotFound)

	tests := map[string]AddressInput{
		"missing name":   {Line1: "x", City: "y", PostalCode: "z", Country: "GB"},
		"missing city":   {FullName: "Ada", Line1: "x", PostalCode: "z", Country: "GB"},
		"long country":   {FullName: "Ada", Line1: "x", City: "y", PostalCode: "z", Country: "GBR"},
		"missing postal": {FullName: "Ada", Line1: "x", City: "y", Country: "GB"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := addresses.Save(ctx, u.ID, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	input.IsDefault = false
	for i := 2; i < maxAddressesPerUser; i++ {
		_, err := addresses.Save(ctx, u.ID, input)
		require.NoError(t, err)
	}
	_, err = addresses.Save(ctx, u.ID, input)
	assert.ErrorIs(t, err, ErrAddressLimit)

	require.NoError(t, addresses.Delete(ctx, u.ID, first.ID))
}
