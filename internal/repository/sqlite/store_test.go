package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/shopboard/internal/migrations"
	"github.com/creamcroissant/shopboard/internal/repository"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db))
	return NewStore(db)
}

func seedUser(t *testing.T, s *Store, email string) *repository.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &repository.User{Email: email, Password: "hash", Name: "Test"})
	require.NoError(t, err)
	return u
}

func seedProduct(t *testing.T, s *Store, slug string, stock int, saleCents int64) *repository.Product {
	t.Helper()
	p, err := s.Products().Create(context.Background(), &repository.Product{
		Name:           "Product " + slug,
		Slug:           slug,
		CostCents:      saleCents / 2,
		PriceCents:     saleCents,
		SalePriceCents: saleCents,
		Stock:          stock,
		Available:      true,
	})
	require.NoError(t, err)
	return p
}

func TestSettingRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Settings()

	_, err := repo.Get(ctx, "shop_name")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "shop_name", Value: "Shopboard", Category: "shop", UpdatedAt: 1}))
	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "shop_name", Value: "Renamed", Category: "shop", UpdatedAt: 2}))
	got, err := repo.Get(ctx, "shop_name")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Value)
	require.Equal(t, int64(2), got.UpdatedAt)

	created, err := repo.CreateIfAbsent(ctx, &repository.Setting{Key: "auth_signing_key", Value: "first", Category: "security", UpdatedAt: 3})
	require.NoError(t, err)
	require.True(t, created)
	created, err = repo.CreateIfAbsent(ctx, &repository.Setting{Key: "auth_signing_key", Value: "second", Category: "security", UpdatedAt: 4})
	require.NoError(t, err)
	require.False(t, created)

	// 空白值视为缺失
	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "support_email", Value: "  ", Category: "shop"}))
	created, err = repo.CreateIfAbsent(ctx, &repository.Setting{Key: "support_email", Value: "help@example.com", Category: "shop"})
	require.NoError(t, err)
	require.True(t, created)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	shop, err := repo.List(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, shop, 2)
	require.Equal(t, "shop_name", shop[0].Key)
	require.Equal(t, "support_email", shop[1].Key)
}
