// 文件路径: internal/repository/filters.go
// 模块说明: 列表查询的过滤与分页条件。
package repository

// UserSearchFilter constrains admin user listings.
type UserSearchFilter struct {
	Keyword string
	Role    string
	Banned  *bool
	Limit   int
	Offset  int
}

// 商品排序方式。
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
	ProductSortPopular   = "popular"
)

// ProductFilter constrains catalog listings.
type ProductFilter struct {
	CategoryID    *int64
	Keyword       string
	Tag           string
	MinPriceCents *int64
	MaxPriceCents *int64
	// OnlyAvailable 只返回已上架且有库存的商品。
	OnlyAvailable bool
	Sort          string
	Limit         int
	Offset        int
}

// OrderFilter constrains order listings. UserID 为空表示后台查询全部订单。
type OrderFilter struct {
	UserID  *int64
	Status  OrderStatus
	Keyword string
	From    int64
	To      int64
	Limit   int
	Offset  int
}

// NormalizeLimit 把分页大小限制在 [1,100]，默认 20。
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}
