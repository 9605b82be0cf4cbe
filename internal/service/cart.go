// 文件路径: internal/service/cart.go
// 模块说明: 购物车。每行数量不超过 99 且不超过库存，金额按商品当前售价实时计算。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// MaxLineQuantity 是单行商品数量上限。
const MaxLineQuantity = 99

// CartService manages the shopping cart of a user.
type CartService interface {
	View(ctx context.Context, userID int64) (*CartView, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (*CartView, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartView, error)
	Remove(ctx context.Context, userID, productID int64) (*CartView, error)
	Clear(ctx context.Context, userID int64) error
}

// CartLine 是带当前价格的购物车行。
type CartLine struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	UnitPriceCents int64  `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total"`
	Stock          int    `json:"stock"`
	Available      bool   `json:"available"`
}

// CartView 汇总购物车金额。不可购买的行不计入小计。
type CartView struct {
	Lines         []CartLine `json:"lines"`
	ItemCount     int        `json:"item_count"`
	SubtotalCents int64      `json:"subtotal"`
	ShippingCents int64      `json:"shipping_fee"`
	TotalCents    int64      `json:"total"`
	Currency      string     `json:"currency"`
	// Purchasable 为 false 表示有行缺货或下架，需要调整后才能结算。
	Purchasable bool `json:"purchasable"`
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	rules    PricingRules
	now      func() time.Time
}

// NewCartService wires the cart.
func NewCartService(store repository.Store, rules PricingRules) CartService {
	s := &cartService{rules: rules, now: time.Now}
	if store != nil {
		s.carts = store.Carts()
		s.products = store.Products()
	}
	return s
}

func (s *cartService) ready() error {
	if s == nil || s.carts == nil || s.products == nil {
		return fmt.Errorf("cart service not configured / 购物车服务未配置")
	}
	return nil
}

func (s *cartService) View(ctx context.Context, userID int64) (*CartView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	items, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(ctx, s.products, s.rules, items)
}

// buildCartView 按商品当前售价计算购物车，结算流程复用。
func buildCartView(ctx context.Context, products repository.ProductRepository, rules PricingRules, items []repository.CartItem) (*CartView, error) {
	view := &CartView{Lines: []CartLine{}, Currency: rules.Currency, Purchasable: len(items) > 0}
	if len(items) == 0 {
		return view, nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		p, ok := found[item.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.SalePriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: LineTotal(p.SalePriceCents, item.Quantity),
			Stock:          p.Stock,
			Available:      p.Purchasable() && item.Quantity <= p.Stock,
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		if line.Available {
			view.SubtotalCents += line.LineTotalCents
			view.ItemCount += line.Quantity
		} else {
			view.Purchasable = false
		}
		view.Lines = append(view.Lines, line)
	}
	if len(view.Lines) == 0 {
		view.Purchasable = false
	}
	view.ShippingCents = rules.ShippingFee(view.SubtotalCents)
	view.TotalCents = view.SubtotalCents + view.ShippingCents
	return view, nil
}

func (s *cartService) Add(ctx context.Context, userID, productID int64, quantity int) (*CartView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity / 数量必须为正", ErrInvalidInput)
	}
	// 先单独比较上限，避免与已有数量相加时溢出
	if quantity > MaxLineQuantity {
		return nil, ErrQuantityLimit
	}
	existing := 0
	item, err := s.carts.Get(ctx, userID, productID)
	switch {
	case err == nil:
		existing = item.Quantity
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	if err := s.put(ctx, userID, productID, existing+quantity); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity / 数量不能为负", ErrInvalidInput)
	}
	if quantity == 0 {
		return s.Remove(ctx, userID, productID)
	}
	if err := s.put(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *cartService) put(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity > MaxLineQuantity {
		return ErrQuantityLimit
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if !product.Purchasable() {
		return ErrProductUnavailable
	}
	if quantity > product.Stock {
		return ErrInsufficientStock
	}
	return s.carts.Set(ctx, repository.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: s.now().Unix(),
	})
}

func (s *cartService) Remove(ctx context.Context, userID, productID int64) (*CartView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.carts.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.carts.Clear(ctx, userID)
}
