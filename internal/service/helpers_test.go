package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/migrations"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/repository/sqlite"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

var serviceDBSeq atomic.Int64

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", serviceDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db))
	return sqlite.NewStore(db)
}

func newTestCache() cache.Store {
	return cache.NewStore(cache.Options{DefaultTTL: time.Minute})
}

func newTestHasher(t *testing.T) hash.Hasher {
	t.Helper()
	h, err := hash.NewBcryptHasher(4)
	require.NoError(t, err)
	return h
}

var testRules = PricingRules{
	TaxRate:               10,
	DefaultMargin:         20,
	Currency:              "USD",
	ShippingFeeCents:      500,
	FreeShippingThreshold: 10000,
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifier.EmailRequest
}

func (n *recordingNotifier) SendEmail(_ context.Context, req notifier.EmailRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return nil
}

func (n *recordingNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, req := range n.sent {
		out = append(out, fmt.Sprint(req.Variables["status"]))
	}
	return out
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockGateway) CancelIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, intentID string, amountCents int64) (*payment.Refund, error) {
	args := m.Called(ctx, intentID, amountCents)
	refund, _ := args.Get(0).(*payment.Refund)
	return refund, args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*payment.Event)
	return event, args.Error(1)
}

func seedCustomer(t *testing.T, store repository.Store, email string) *repository.User {
	t.Helper()
	u, err := store.Users().Create(context.Background(), &repository.User{Email: email, Password: "x", Name: "Customer", Role: repository.RoleCustomer})
	require.NoError(t, err)
	return u
}

func seedAddress(t *testing.T, store repository.Store, userID int64) *repository.Address {
	t.Helper()
	a := &repository.Address{
		UserID:     userID,
		FullName:   "Ada Lovelace",
		Line1:      "1 Main St",
		City:       "London",
		PostalCode: "N1",
		Country:    "GB",
		IsDefault:  true,
	}
	require.NoError(t, store.Addresses().Save(context.Background(), a))
	return a
}

func seedCatalogProduct(t *testing.T, products ProductService, name string, costCents int64, stock int) *repository.Product {
	t.Helper()
	p, err := products.Save(context.Background(), ProductSaveInput{Name: &name, CostCents: &costCents, Stock: &stock})
	require.NoError(t, err)
	return p
}
