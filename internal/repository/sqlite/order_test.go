package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
)

func placeTestOrder(t *testing.T, s *Store, userID int64, p *repository.Product, qty int, tradeNo string, createdAt int64) *repository.Order {
	t.Helper()
	order := &repository.Order{
		TradeNo:         tradeNo,
		UserID:          userID,
		SubtotalCents:   p.SalePriceCents * int64(qty),
		TotalCents:      p.SalePriceCents * int64(qty),
		Currency:        "usd",
		ShippingAddress: repository.AddressSnapshot{FullName: "A", Line1: "1 St", City: "X", PostalCode: "1", Country: "US"},
		CreatedAt:       createdAt,
		Items: []repository.OrderItem{{
			ProductID:      p.ID,
			ProductName:    p.Name,
			UnitPriceCents: p.SalePriceCents,
			Quantity:       qty,
			LineTotalCents: p.SalePriceCents * int64(qty),
		}},
	}
	placed, err := s.Orders().Place(context.Background(), order, repository.OrderStatusLog{
		ToStatus: repository.OrderPending, ActorType: repository.ActorUser, ActorID: userID,
	})
	require.NoError(t, err)
	return placed
}

func TestOrderPlaceDecrementsStockAndClearsCart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "buyer@example.com")
	p := seedProduct(t, s, "kettle", 3, 4000)
	require.NoError(t, s.Carts().Set(ctx, repository.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 2}))

	order := placeTestOrder(t, s, u.ID, p, 2, "T-1", 1000)
	assert.NotZero(t, order.ID)

	got, err := s.Orders().FindByTradeNo(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, repository.OrderPending, got.Status)
	assert.Equal(t, "US", got.ShippingAddress.Country)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	product, err := s.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.Stock)
	assert.Equal(t, int64(2), product.Sold)

	items, err := s.Carts().List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.Orders().Place(ctx, &repository.Order{
		TradeNo: "T-2", UserID: u.ID, Currency: "usd",
		Items: []repository.OrderItem{{ProductID: p.ID, ProductName: p.Name, UnitPriceCents: 4000, Quantity: 2, LineTotalCents: 8000}},
	}, repository.OrderStatusLog{ToStatus: repository.OrderPending, ActorType: repository.ActorUser})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	_, err = s.Orders().FindByTradeNo(ctx, "T-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "flow@example.com")
	p := seedProduct(t, s, "chair", 5, 1000)
	order := placeTestOrder(t, s, u.ID, p, 2, "T-10", 1000)

	require.NoError(t, s.Orders().SetPaymentIntent(ctx, order.ID, "manual", "pi_1", 1001))
	byIntent, err := s.Orders().FindByPaymentIntent(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byIntent.ID)

	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPending, To: repository.OrderPaid, PaidAmountCents: 2000, At: 1100,
		Log: repository.OrderStatusLog{ActorType: repository.ActorSystem},
	}))

	err = s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPending, To: repository.OrderCancelled, At: 1200,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.Orders().Transition(ctx, repository.OrderTransition{OrderID: 999, From: repository.OrderPending, To: repository.OrderPaid})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPaid, To: repository.OrderCancelled, Restock: true, Reason: "changed mind", At: 1300,
		Log: repository.OrderStatusLog{ActorType: repository.ActorUser, ActorID: u.ID},
	}))

	got, err := s.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.OrderCancelled, got.Status)
	assert.Equal(t, int64(2000), got.PaidAmountCents)
	assert.Equal(t, int64(1100), got.PaidAt)
	assert.Equal(t, int64(1300), got.CancelledAt)
	assert.Equal(t, "changed mind", got.CancelReason)

	product, err := s.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Stock)
	assert.Equal(t, int64(0), product.Sold)

	logs, err := s.Orders().StatusLogs(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, repository.OrderStatus(""), logs[0].FromStatus)
	assert.Equal(t, repository.OrderPaid, logs[1].ToStatus)
	assert.Equal(t, repository.OrderCancelled, logs[2].ToStatus)
	assert.Equal(t, "changed mind", logs[2].Reason)
}

func TestOrderListAndStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	p := seedProduct(t, s, "pen", 20, 100)

	placeTestOrder(t, s, alice.ID, p, 1, "A-1", 100)
	second := placeTestOrder(t, s, alice.ID, p, 1, "A-2", 200)
	placeTestOrder(t, s, bob.ID, p, 1, "B-1", 300)
	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: second.ID, From: repository.OrderPending, To: repository.OrderPaid, PaidAmountCents: 100, At: 250,
	}))

	testCases := map[string]struct {
		filter repository.OrderFilter
		want   []string
	}{
		"own orders newest first": {filter: repository.OrderFilter{UserID: &alice.ID}, want: []string{"A-2", "A-1"}},
		"by status":               {filter: repository.OrderFilter{Status: repository.OrderPending}, want: []string{"B-1", "A-1"}},
		"keyword matches email":   {filter: repository.OrderFilter{Keyword: "bob@"}, want: []string{"B-1"}},
		"created range":           {filter: repository.OrderFilter{From: 150, To: 300}, want: []string{"A-2"}},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			list, err := s.Orders().List(ctx, tc.filter)
			require.NoError(t, err)
			var got []string
			for _, o := range list {
				got = append(got, o.TradeNo)
				assert.NotEmpty(t, o.Items)
			}
			assert.Equal(t, tc.want, got)
			count, err := s.Orders().Count(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.want)), count)
		})
	}

	stale, err := s.Orders().ListStalePending(ctx, 250, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "A-1", stale[0].TradeNo)
}

func TestTrackingAndReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "r@example.com")
	p := seedProduct(t, s, "book", 10, 1500)
	order := placeTestOrder(t, s, u.ID, p, 3, "R-1", 86400)
	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPending, To: repository.OrderPaid, PaidAmountCents: 4500, At: 86500,
	}))

	tr, err := s.Trackings().Create(ctx, &repository.Tracking{OrderID: order.ID, Carrier: "UPS", TrackingNumber: "1Z"})
	require.NoError(t, err)
	_, err = s.Trackings().Create(ctx, &repository.Tracking{OrderID: order.ID, Carrier: "UPS", TrackingNumber: "1Z"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	list, err := s.Trackings().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.ErrorIs(t, s.Trackings().Delete(ctx, order.ID+1, tr.ID), repository.ErrNotFound)
	require.NoError(t, s.Trackings().Delete(ctx, order.ID, tr.ID))

	paid := []repository.OrderStatus{repository.OrderPaid, repository.OrderOnRoute, repository.OrderDelivered}
	revenue, err := s.Reports().Revenue(ctx, paid)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), revenue)

	counts, err := s.Reports().OrderCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, len(repository.AllOrderStatuses))
	assert.Equal(t, repository.StatusCount{Status: repository.OrderPaid, Count: 1}, counts[1])

	top, err := s.Reports().TopProducts(ctx, paid, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(3), top[0].Units)

	daily, err := s.Reports().DailySales(ctx, paid, 0)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "1970-01-02", daily[0].Day)
	assert.Equal(t, int64(4500), daily[0].RevenueCents)

	customers, err := s.Reports().CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), customers)
}

func TestOrderRefundClaim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "claim@example.com")
	p := seedProduct(t, s, "lamp", 5, 1000)
	order := placeTestOrder(t, s, u.ID, p, 1, "T-40", 1000)
	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPending, To: repository.OrderPaid, PaidAmountCents: 1000, At: 1100,
	}))

	assert.ErrorIs(t, s.Orders().ClaimRefund(ctx, order.ID, repository.OrderPending, 1200, 600), repository.ErrConflict, "wrong status")
	assert.ErrorIs(t, s.Orders().ClaimRefund(ctx, 999, repository.OrderPaid, 1200, 600), repository.ErrNotFound)

	require.NoError(t, s.Orders().ClaimRefund(ctx, order.ID, repository.OrderPaid, 1200, 600))
	assert.ErrorIs(t, s.Orders().ClaimRefund(ctx, order.ID, repository.OrderPaid, 1201, 601), repository.ErrConflict, "already claimed")

	err := s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPaid, To: repository.OrderOnRoute, At: 1202,
		Tracking: &repository.Tracking{Carrier: "UPS", TrackingNumber: "1Z40"},
	})
	assert.ErrorIs(t, err, repository.ErrConflict, "claimed orders cannot ship")

	// 中断遗留的占有过期后可以重新占有
	require.NoError(t, s.Orders().ClaimRefund(ctx, order.ID, repository.OrderPaid, 2000, 1500))

	require.NoError(t, s.Orders().ReleaseRefund(ctx, order.ID))
	err = s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPaid, To: repository.OrderCancelled, RefundClaimed: true, At: 2001,
	})
	assert.ErrorIs(t, err, repository.ErrConflict, "released claims cannot complete")

	require.NoError(t, s.Orders().ClaimRefund(ctx, order.ID, repository.OrderPaid, 2100, 1500))
	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: order.ID, From: repository.OrderPaid, To: repository.OrderCancelled, Restock: true, RefundClaimed: true, At: 2101,
	}))
	got, err := s.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.OrderCancelled, got.Status)

	trackings, err := s.Trackings().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, trackings)
}

func TestOrderShipWithTracking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ship@example.com")
	p := seedProduct(t, s, "desk", 5, 1000)
	first := placeTestOrder(t, s, u.ID, p, 1, "T-50", 1000)
	second := placeTestOrder(t, s, u.ID, p, 1, "T-51", 1000)
	for _, o := range []*repository.Order{first, second} {
		require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
			OrderID: o.ID, From: repository.OrderPending, To: repository.OrderPaid, PaidAmountCents: 1000, At: 1100,
		}))
	}

	tr := &repository.Tracking{Carrier: "DHL", TrackingNumber: "JD50"}
	require.NoError(t, s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: first.ID, From: repository.OrderPaid, To: repository.OrderOnRoute, At: 1200, Tracking: tr,
	}))
	assert.NotZero(t, tr.ID)
	assert.Equal(t, first.ID, tr.OrderID)
	assert.Equal(t, int64(1200), tr.CreatedAt)

	err := s.Orders().Transition(ctx, repository.OrderTransition{
		OrderID: second.ID, From: repository.OrderPaid, To: repository.OrderOnRoute, At: 1300,
		Tracking: &repository.Tracking{Carrier: "DHL", TrackingNumber: "JD50"},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateTracking)

	got, err := s.Orders().FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.OrderPaid, got.Status, "duplicate tracking rolls the shipment back")
	logs, err := s.Orders().StatusLogs(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
