// 文件路径: internal/service/catalog_cache.go
// 模块说明: 商品详情缓存。商品修改、库存变化和下单后按 id 失效。
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/creamcroissant/shopboard/internal/cache"
)

const productCacheTTL = 5 * time.Minute

type productCache struct {
	store cache.Store
}

func newProductCache(store cache.Store) *productCache {
	if store == nil {
		return &productCache{}
	}
	return &productCache{store: store.Namespace("catalog").Namespace("product")}
}

func (c *productCache) get(ctx context.Context, id int64) (*ProductView, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	var view ProductView
	ok, err := c.store.GetJSON(ctx, strconv.FormatInt(id, 10), &view)
	if err != nil || !ok {
		return nil, false
	}
	return &view, true
}

func (c *productCache) set(ctx context.Context, view *ProductView) {
	if c == nil || c.store == nil || view == nil {
		return
	}
	_ = c.store.SetJSON(ctx, strconv.FormatInt(view.ID, 10), view, productCacheTTL)
}

func (c *productCache) invalidate(ctx context.Context, ids ...int64) {
	if c == nil || c.store == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, strconv.FormatInt(id, 10))
	}
	_ = c.store.Delete(ctx, keys...)
}
