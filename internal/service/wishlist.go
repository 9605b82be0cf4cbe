// 文件路径: internal/service/wishlist.go
// 模块说明: 收藏夹，集合语义：重复添加不报错。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// WishlistService manages the wishlist of a user.
type WishlistService interface {
	List(ctx context.Context, userID int64) ([]WishlistEntry, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	MoveToCart(ctx context.Context, userID, productID int64) (*CartView, error)
}

// WishlistEntry 是收藏的商品及收藏时间。
type WishlistEntry struct {
	Product *ProductView `json:"product"`
	AddedAt int64        `json:"added_at"`
}

type wishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	cart      CartService
	now       func() time.Time
}

// NewWishlistService wires the wishlist; cart is used by MoveToCart.
func NewWishlistService(store repository.Store, cart CartService) WishlistService {
	s := &wishlistService{cart: cart, now: time.Now}
	if store != nil {
		s.wishlists = store.Wishlists()
		s.products = store.Products()
	}
	return s
}

func (s *wishlistService) ready() error {
	if s == nil || s.wishlists == nil || s.products == nil {
		return fmt.Errorf("wishlist service not configured / 收藏服务未配置")
	}
	return nil
}

func (s *wishlistService) List(ctx context.Context, userID int64) ([]WishlistEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	items, err := s.wishlists.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]WishlistEntry, 0, len(items))
	if len(items) == 0 {
		return entries, nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		entries = append(entries, WishlistEntry{Product: NewProductView(p), AddedAt: item.CreatedAt})
	}
	return entries, nil
}

func (s *wishlistService) Add(ctx context.Context, userID, productID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return s.wishlists.Add(ctx, repository.WishlistItem{UserID: userID, ProductID: productID, CreatedAt: s.now().Unix()})
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.wishlists.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *wishlistService) MoveToCart(ctx context.Context, userID, productID int64) (*CartView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.cart == nil {
		return nil, fmt.Errorf("cart service not configured / 购物车服务未配置")
	}
	ok, err := s.wishlists.Contains(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	view, err := s.cart.Add(ctx, userID, productID, 1)
	if err != nil {
		return nil, err
	}
	if err := s.wishlists.Remove(ctx, userID, productID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return view, nil
}
