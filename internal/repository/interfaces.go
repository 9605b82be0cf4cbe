// 文件路径: internal/repository/interfaces.go
// 模块说明: 仓储接口，服务层只依赖这些接口，SQLite 实现位于 sqlite 子包。
package repository

import "context"

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Users() UserRepository
	Tokens() TokenRepository
	LoginLogs() LoginLogRepository
	Settings() SettingRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Addresses() AddressRepository
	Carts() CartRepository
	Wishlists() WishlistRepository
	Orders() OrderRepository
	Trackings() TrackingRepository
	Reports() ReportRepository
}

// UserRepository 定义用户相关数据访问方法。
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) error
	TouchLogin(ctx context.Context, id int64, at int64) error
	Search(ctx context.Context, filter UserSearchFilter) ([]*User, error)
	CountFiltered(ctx context.Context, filter UserSearchFilter) (int64, error)
	HasAdmin(ctx context.Context) (bool, error)
}

// TokenRepository 保存刷新令牌 jti。
type TokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) (*RefreshToken, error)
	FindByJTI(ctx context.Context, jti string) (*RefreshToken, error)
	// Revoke 吊销未吊销的 jti，返回是否真的发生了吊销（用于检测重放）。
	Revoke(ctx context.Context, jti string, at int64) (bool, error)
	RevokeByUser(ctx context.Context, userID int64, at int64) error
	DeleteExpired(ctx context.Context, before int64) (int64, error)
}

// LoginLogRepository 记录登录尝试。
type LoginLogRepository interface {
	Create(ctx context.Context, entry *LoginLog) error
}

// SettingRepository 处理系统配置的存取。
type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
	// CreateIfAbsent 仅在 key 缺失或值为空时写入，返回是否写入。
	CreateIfAbsent(ctx context.Context, setting *Setting) (bool, error)
	// List 按分类过滤，空分类返回全部。
	List(ctx context.Context, category string) ([]Setting, error)
}

// CategoryRepository 管理商品分类。
type CategoryRepository interface {
	List(ctx context.Context, onlyVisible bool) ([]*Category, error)
	FindByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id int64) error
	Sort(ctx context.Context, ids []int64, updatedAt int64) error
	ExistAll(ctx context.Context, ids []int64) (bool, error)
}

// ProductRepository 管理商品与分类关联。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	Create(ctx context.Context, product *Product) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int, updatedAt int64) (int, error)
	LowStock(ctx context.Context, threshold int, limit int) ([]*Product, error)
}

// AddressRepository 管理收货地址。
type AddressRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*Address, error)
	FindByID(ctx context.Context, userID, id int64) (*Address, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	// Save 新增或更新地址；IsDefault 为 true 时在同一事务中清除其它默认地址。
	Save(ctx context.Context, address *Address) error
	Delete(ctx context.Context, userID, id int64) error
}

// CartRepository 管理购物车。
type CartRepository interface {
	List(ctx context.Context, userID int64) ([]CartItem, error)
	Get(ctx context.Context, userID, productID int64) (*CartItem, error)
	Set(ctx context.Context, item CartItem) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

// WishlistRepository 管理收藏夹。
type WishlistRepository interface {
	List(ctx context.Context, userID int64) ([]WishlistItem, error)
	Add(ctx context.Context, item WishlistItem) error
	Remove(ctx context.Context, userID, productID int64) error
	Contains(ctx context.Context, userID, productID int64) (bool, error)
}

// OrderRepository 管理订单、订单行与状态日志。
type OrderRepository interface {
	// Place 在同一事务中扣减库存、写入订单与订单行、记录初始状态并清空购物车。
	Place(ctx context.Context, order *Order, log OrderStatusLog) (*Order, error)
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindByTradeNo(ctx context.Context, tradeNo string) (*Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	SetPaymentIntent(ctx context.Context, id int64, provider, intentID string, updatedAt int64) error
	// Transition 仅当订单仍处于 From 状态且未被退款占有时更新，否则返回 ErrConflict。
	Transition(ctx context.Context, t OrderTransition) error
	// ClaimRefund 在退款前占有仍处于 from 状态的订单，占有期间其他流转返回 ErrConflict。
	// 早于 staleBefore 的占有视为中断，可以被重新占有。
	ClaimRefund(ctx context.Context, orderID int64, from OrderStatus, at, staleBefore int64) error
	// ReleaseRefund 在退款失败后释放占有。
	ReleaseRefund(ctx context.Context, orderID int64) error
	StatusLogs(ctx context.Context, orderID int64) ([]OrderStatusLog, error)
	ListStalePending(ctx context.Context, createdBefore int64, limit int) ([]*Order, error)
}

// TrackingRepository 管理物流单号。
type TrackingRepository interface {
	ListByOrder(ctx context.Context, orderID int64) ([]Tracking, error)
	Create(ctx context.Context, tracking *Tracking) (*Tracking, error)
	Delete(ctx context.Context, orderID, id int64) error
}

// ReportRepository 提供看板统计查询。
type ReportRepository interface {
	Revenue(ctx context.Context, statuses []OrderStatus) (int64, error)
	OrderCounts(ctx context.Context) ([]StatusCount, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	TopProducts(ctx context.Context, statuses []OrderStatus, limit int) ([]TopProduct, error)
	DailySales(ctx context.Context, statuses []OrderStatus, since int64) ([]DailySales, error)
}
