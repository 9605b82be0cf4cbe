package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
)

func TestCategoryDeleteInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat, err := s.Categories().Create(ctx, &repository.Category{Name: "Shoes", Slug: "shoes", Show: true})
	require.NoError(t, err)

	_, err = s.Categories().Create(ctx, &repository.Category{Name: "shoes", Slug: "shoes-2"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	p, err := s.Products().Create(ctx, &repository.Product{
		Name: "Runner", Slug: "runner", CostCents: 1000, PriceCents: 1500, SalePriceCents: 1500,
		Stock: 3, Available: true, CategoryIDs: []int64{cat.ID},
	})
	require.NoError(t, err)

	found, err := s.Categories().FindByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ProductCount)

	assert.ErrorIs(t, s.Categories().Delete(ctx, cat.ID), repository.ErrInUse)

	require.NoError(t, s.Products().Delete(ctx, p.ID))
	require.NoError(t, s.Categories().Delete(ctx, cat.ID))
	_, err = s.Categories().FindByID(ctx, cat.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat, err := s.Categories().Create(ctx, &repository.Category{Name: "Tea", Slug: "tea", Show: true})
	require.NoError(t, err)

	green, err := s.Products().Create(ctx, &repository.Product{
		Name: "Green tea", Slug: "green-tea", CostCents: 200, PriceCents: 400, SalePriceCents: 400,
		Stock: 10, Sold: 5, Available: true, Tags: []string{"organic"}, Images: []string{"https://cdn/x.png"},
		CategoryIDs: []int64{cat.ID}, CreatedAt: 100,
	})
	require.NoError(t, err)
	_, err = s.Products().Create(ctx, &repository.Product{
		Name: "Black tea", Slug: "black-tea", CostCents: 300, PriceCents: 900, SalePriceCents: 900,
		Stock: 0, Sold: 1, Available: true, CategoryIDs: []int64{cat.ID}, CreatedAt: 200,
	})
	require.NoError(t, err)
	_, err = s.Products().Create(ctx, &repository.Product{
		Name: "Mug", Slug: "mug", CostCents: 500, PriceCents: 1200, SalePriceCents: 1200,
		Stock: 4, Sold: 9, Available: false, CreatedAt: 300,
	})
	require.NoError(t, err)

	maxPrice := int64(500)
	testCases := map[string]struct {
		filter repository.ProductFilter
		want   []string
	}{
		"newest first by default": {
			filter: repository.ProductFilter{},
			want:   []string{"mug", "black-tea", "green-tea"},
		},
		"category": {
			filter: repository.ProductFilter{CategoryID: &cat.ID, Sort: repository.ProductSortPriceAsc},
			want:   []string{"green-tea", "black-tea"},
		},
		"only available hides out of stock and unlisted": {
			filter: repository.ProductFilter{OnlyAvailable: true},
			want:   []string{"green-tea"},
		},
		"keyword": {
			filter: repository.ProductFilter{Keyword: "tea", Sort: repository.ProductSortPriceDesc},
			want:   []string{"black-tea", "green-tea"},
		},
		"tag": {
			filter: repository.ProductFilter{Tag: "organic"},
			want:   []string{"green-tea"},
		},
		"max price": {
			filter: repository.ProductFilter{MaxPriceCents: &maxPrice},
			want:   []string{"green-tea"},
		},
		"popular": {
			filter: repository.ProductFilter{Sort: repository.ProductSortPopular},
			want:   []string{"mug", "green-tea", "black-tea"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			list, err := s.Products().List(ctx, tc.filter)
			require.NoError(t, err)
			slugs := make([]string, 0, len(list))
			for _, p := range list {
				slugs = append(slugs, p.Slug)
			}
			assert.Equal(t, tc.want, slugs)

			count, err := s.Products().Count(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.want)), count)
		})
	}

	got, err := s.Products().FindByID(ctx, green.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cat.ID}, got.CategoryIDs)
	assert.Equal(t, []string{"organic"}, got.Tags)
	assert.Equal(t, []string{"https://cdn/x.png"}, got.Images)
}

func TestProductAdjustStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "widget", 2, 1000)

	stock, err := s.Products().AdjustStock(ctx, p.ID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	_, err = s.Products().AdjustStock(ctx, p.ID, -6, 11)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	_, err = s.Products().AdjustStock(ctx, 9999, 1, 12)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	low, err := s.Products().LowStock(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].ID)
}
