// 文件路径: internal/service/product.go
// 模块说明: 商品目录。保存时重新计算标价、售价与实际折扣；前台视图隐藏成本与利润率。
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
)

const (
	maxProductImages = 12
	maxProductTags   = 20
)

// ProductService exposes the storefront catalog and its admin management.
type ProductService interface {
	List(ctx context.Context, query ProductQuery) (*ProductListResult, error)
	Detail(ctx context.Context, id int64) (*ProductView, error)
	AdminList(ctx context.Context, query ProductQuery) (*AdminProductListResult, error)
	Get(ctx context.Context, id int64) (*repository.Product, error)
	Save(ctx context.Context, input ProductSaveInput) (*repository.Product, error)
	Delete(ctx context.Context, actorID, id int64) error
	AdjustStock(ctx context.Context, actorID, id int64, delta int) (*repository.Product, error)
	SetAvailability(ctx context.Context, actorID, id int64, available bool) (*repository.Product, error)
}

// ProductQuery 是商品列表过滤条件，价格单位为分。
type ProductQuery struct {
	CategoryID    *int64
	Keyword       string
	Tag           string
	MinPriceCents *int64
	MaxPriceCents *int64
	OnlyAvailable bool
	Sort          string
	Page
}

// ProductView 是前台看到的商品。
type ProductView struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price"`
	SaleCents   int64    `json:"sale_price"`
	Discount    float64  `json:"discount"`
	Stock       int      `json:"stock"`
	Available   bool     `json:"available"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	CategoryIDs []int64  `json:"category_ids"`
	UpdatedAt   int64    `json:"updated_at"`
}

// ProductListResult 包装前台分页商品。
type ProductListResult struct {
	Products []*ProductView `json:"products"`
	Total    int64          `json:"total"`
}

// AdminProductListResult 包装后台分页商品。
type AdminProductListResult struct {
	Products []*repository.Product `json:"products"`
	Total    int64                 `json:"total"`
}

// ProductSaveInput captures fields admins can mutate. ID 为 0 时新建。
type ProductSaveInput struct {
	ActorID     int64    `json:"-"`
	ID          int64    `json:"id"`
	Name        *string  `json:"name,omitempty"`
	Slug        *string  `json:"slug,omitempty"`
	Description *string  `json:"description,omitempty"`
	CostCents   *int64   `json:"cost,omitempty"`
	Margin      *float64 `json:"margin,omitempty"`
	Discount    *float64 `json:"discount,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CategoryIDs []int64  `json:"category_ids,omitempty"`
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      *productCache
	rules      PricingRules
	audit      security.Recorder
	now        func() time.Time
}

// NewProductService wires the catalog.
func NewProductService(store repository.Store, cacheStore cache.Store, rules PricingRules, audit security.Recorder) ProductService {
	s := &productService{
		cache: newProductCache(cacheStore),
		rules: rules,
		audit: audit,
		now:   time.Now,
	}
	if store != nil {
		s.products = store.Products()
		s.categories = store.Categories()
	}
	return s
}

// NewProductView 把商品转换为前台视图，库存为 0 时一律显示不可购买。
func NewProductView(p *repository.Product) *ProductView {
	if p == nil {
		return nil
	}
	view := &ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		SaleCents:   p.SalePriceCents,
		Discount:    p.EffectiveDiscount,
		Stock:       p.Stock,
		Available:   p.Purchasable(),
		Images:      p.Images,
		Tags:        p.Tags,
		CategoryIDs: p.CategoryIDs,
		UpdatedAt:   p.UpdatedAt,
	}
	if view.Images == nil {
		view.Images = []string{}
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if view.CategoryIDs == nil {
		view.CategoryIDs = []int64{}
	}
	return view
}

func (q ProductQuery) filter() (repository.ProductFilter, error) {
	limit, offset := q.limitOffset()
	f := repository.ProductFilter{
		CategoryID:    q.CategoryID,
		Keyword:       strings.TrimSpace(q.Keyword),
		Tag:           strings.TrimSpace(q.Tag),
		MinPriceCents: q.MinPriceCents,
		MaxPriceCents: q.MaxPriceCents,
		OnlyAvailable: q.OnlyAvailable,
		Sort:          q.Sort,
		Limit:         limit,
		Offset:        offset,
	}
	switch f.Sort {
	case "", repository.ProductSortNewest, repository.ProductSortPriceAsc, repository.ProductSortPriceDesc, repository.ProductSortPopular:
	default:
		return f, fmt.Errorf("%w: sort / 排序方式无效", ErrInvalidInput)
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return f, fmt.Errorf("%w: price range / 价格区间无效", ErrInvalidInput)
	}
	return f, nil
}

func (s *productService) List(ctx context.Context, query ProductQuery) (*ProductListResult, error) {
	list, total, err := s.list(ctx, query)
	if err != nil {
		return nil, err
	}
	views := make([]*ProductView, 0, len(list))
	for _, p := range list {
		views = append(views, NewProductView(p))
	}
	return &ProductListResult{Products: views, Total: total}, nil
}

func (s *productService) AdminList(ctx context.Context, query ProductQuery) (*AdminProductListResult, error) {
	list, total, err := s.list(ctx, query)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*repository.Product{}
	}
	return &AdminProductListResult{Products: list, Total: total}, nil
}

func (s *productService) list(ctx context.Context, query ProductQuery) ([]*repository.Product, int64, error) {
	if s == nil || s.products == nil {
		return nil, 0, fmt.Errorf("product service not configured / 商品服务未配置")
	}
	filter, err := query.filter()
	if err != nil {
		return nil, 0, err
	}
	list, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *productService) Detail(ctx context.Context, id int64) (*ProductView, error) {
	if view, ok := s.cache.get(ctx, id); ok {
		return view, nil
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewProductView(product)
	s.cache.set(ctx, view)
	return view, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*repository.Product, error) {
	if s == nil || s.products == nil {
		return nil, fmt.Errorf("product service not configured / 商品服务未配置")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) Save(ctx context.Context, input ProductSaveInput) (*repository.Product, error) {
	if s == nil || s.products == nil {
		return nil, fmt.Errorf("product service not configured / 商品服务未配置")
	}
	product := &repository.Product{Margin: s.rules.DefaultMargin, Available: true}
	if input.ID > 0 {
		existing, err := s.Get(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		product = existing
	}

	if input.Name != nil {
		product.Name = stripTags(*input.Name)
	}
	if product.Name == "" || len(product.Name) > 200 {
		return nil, fmt.Errorf("%w: name / 商品名称无效", ErrInvalidInput)
	}
	switch {
	case input.Slug != nil && strings.TrimSpace(*input.Slug) != "":
		product.Slug = slugify(*input.Slug)
	case product.Slug == "":
		product.Slug = slugify(product.Name)
	}
	if input.Description != nil {
		product.Description = sanitizeHTML(*input.Description)
	}
	if input.CostCents != nil {
		product.CostCents = *input.CostCents
	}
	if input.Margin != nil {
		product.Margin = *input.Margin
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, fmt.Errorf("%w: stock / 库存不能为负", ErrInvalidInput)
		}
		product.Stock = *input.Stock
	}
	if input.Available != nil {
		product.Available = *input.Available
	}
	if input.Images != nil {
		product.Images = cleanStrings(input.Images, maxProductImages)
	}
	if input.Tags != nil {
		product.Tags = cleanStrings(input.Tags, maxProductTags)
	}
	if input.CategoryIDs != nil {
		ids := uniqueIDs(input.CategoryIDs)
		if s.categories != nil && len(ids) > 0 {
			ok, err := s.categories.ExistAll(ctx, ids)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrCategoryNotFound
			}
		}
		product.CategoryIDs = ids
	}

	if err := s.applyPricing(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now().Unix()

	if product.ID == 0 {
		product.CreatedAt = product.UpdatedAt
		created, err := s.products.Create(ctx, product)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrSlugExists
			}
			return nil, err
		}
		s.record(ctx, input.ActorID, "create", created.ID)
		return created, nil
	}
	if err := s.products.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrSlugExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.cache.invalidate(ctx, product.ID)
	s.record(ctx, input.ActorID, "update", product.ID)
	return product, nil
}

// applyPricing 用当前税率重算价格；税率随保存固化到商品上。
func (s *productService) applyPricing(p *repository.Product) error {
	result, err := ComputePrice(PriceInput{CostCents: p.CostCents, Margin: p.Margin, Discount: p.Discount}, s.rules.TaxRate)
	if err != nil {
		return err
	}
	p.TaxRate = s.rules.TaxRate
	p.PriceCents = result.PriceCents
	p.SalePriceCents = result.SalePriceCents
	p.EffectiveDiscount = result.EffectiveDiscount
	return nil
}

func (s *productService) Delete(ctx context.Context, actorID, id int64) error {
	if s == nil || s.products == nil {
		return fmt.Errorf("product service not configured / 商品服务未配置")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.cache.invalidate(ctx, id)
	s.record(ctx, actorID, "delete", id)
	return nil
}

func (s *productService) AdjustStock(ctx context.Context, actorID, id int64, delta int) (*repository.Product, error) {
	if s == nil || s.products == nil {
		return nil, fmt.Errorf("product service not configured / 商品服务未配置")
	}
	if delta == 0 {
		return s.Get(ctx, id)
	}
	if _, err := s.products.AdjustStock(ctx, id, delta, s.now().Unix()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, ErrInsufficientStock
		}
		return nil, err
	}
	s.cache.invalidate(ctx, id)
	s.record(ctx, actorID, "stock", id)
	return s.Get(ctx, id)
}

func (s *productService) SetAvailability(ctx context.Context, actorID, id int64, available bool) (*repository.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Available == available {
		return product, nil
	}
	product.Available = available
	product.UpdatedAt = s.now().Unix()
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.cache.invalidate(ctx, id)
	s.record(ctx, actorID, "availability", id)
	return product, nil
}

func (s *productService) record(ctx context.Context, actorID int64, action string, productID int64) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, security.Event{
		Kind:     security.EventProductChanged,
		ActorID:  strconv.FormatInt(actorID, 10),
		Metadata: map[string]any{"action": action, "product_id": productID},
	})
}
