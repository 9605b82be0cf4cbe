// 文件路径: internal/repository/types.go
// 模块说明: 仓储层实体定义。金额统一以分为单位的 int64 存储，时间为 Unix 秒。
package repository

// 用户角色。
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User 表示顾客或后台账号。
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Password    string `json:"-"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	Banned      bool   `json:"banned"`
	LastLoginAt int64  `json:"last_login_at"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// IsBackoffice 表示账号能否进入后台。
func (u *User) IsBackoffice() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleStaff)
}

// RefreshToken 记录已签发的刷新令牌 jti，用于轮换与吊销。
type RefreshToken struct {
	ID        int64
	UserID    int64
	JTI       string
	ExpiresAt int64
	IP        string
	UserAgent string
	Revoked   bool
	CreatedAt int64
	UpdatedAt int64
}

// LoginLog 记录登录尝试。
type LoginLog struct {
	ID        int64
	UserID    *int64
	Email     string
	IP        string
	UserAgent string
	Success   bool
	Reason    string
	CreatedAt int64
}

// Setting 是键值形式的系统设置。
type Setting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updated_at"`
}

// Category 是商品分类。
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Sort         int    `json:"sort"`
	Show         bool   `json:"show"`
	ProductCount int64  `json:"product_count"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Product 是商品。Price/SalePrice/EffectiveDiscount 由定价规则在保存前计算。
type Product struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Slug              string   `json:"slug"`
	Description       string   `json:"description"`
	CostCents         int64    `json:"cost"`
	Margin            float64  `json:"margin"`
	TaxRate           float64  `json:"tax_rate"`
	Discount          float64  `json:"discount"`
	EffectiveDiscount float64  `json:"effective_discount"`
	PriceCents        int64    `json:"price"`
	SalePriceCents    int64    `json:"sale_price"`
	Stock             int      `json:"stock"`
	Sold              int64    `json:"sold"`
	Available         bool     `json:"available"`
	Images            []string `json:"images"`
	Tags              []string `json:"tags"`
	CategoryIDs       []int64  `json:"category_ids"`
	CreatedAt         int64    `json:"created_at"`
	UpdatedAt         int64    `json:"updated_at"`
}

// Purchasable 表示商品当前可以下单：已上架且有库存。
func (p *Product) Purchasable() bool {
	return p != nil && p.Available && p.Stock > 0
}

// Address 是顾客的收货地址。
type Address struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// Snapshot 返回写入订单的地址快照。
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// AddressSnapshot 是下单时地址的副本，之后修改或删除地址不影响订单。
type AddressSnapshot struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CartItem 是购物车中的一行。
type CartItem struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// WishlistItem 是收藏夹中的商品引用。
type WishlistItem struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	CreatedAt int64 `json:"created_at"`
}

// OrderStatus 是订单状态。
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderPaid      OrderStatus = "Paid"
	OrderOnRoute   OrderStatus = "OnRoute"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// AllOrderStatuses 按流程顺序列出全部状态。
var AllOrderStatuses = []OrderStatus{OrderPending, OrderPaid, OrderOnRoute, OrderDelivered, OrderCancelled}

// Valid 判断状态值是否合法。
func (s OrderStatus) Valid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order 是顾客订单。
type Order struct {
	ID              int64           `json:"id"`
	TradeNo         string          `json:"trade_no"`
	UserID          int64           `json:"user_id"`
	Status          OrderStatus     `json:"status"`
	SubtotalCents   int64           `json:"subtotal"`
	ShippingCents   int64           `json:"shipping_fee"`
	TotalCents      int64           `json:"total"`
	PaidAmountCents int64           `json:"paid_amount"`
	Currency        string          `json:"currency"`
	PaymentProvider string          `json:"payment_provider"`
	PaymentIntentID string          `json:"payment_intent_id"`
	ShippingAddress AddressSnapshot `json:"shipping_address"`
	Note            string          `json:"note"`
	PaidAt          int64           `json:"paid_at"`
	ShippedAt       int64           `json:"shipped_at"`
	DeliveredAt     int64           `json:"delivered_at"`
	CancelledAt     int64           `json:"cancelled_at"`
	CancelReason    string          `json:"cancel_reason"`
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem 是订单行，单价为下单时的售价快照。
type OrderItem struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total"`
}

// 订单状态变更的操作者类型。
const (
	ActorUser   = "user"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

// OrderStatusLog 记录一次状态流转。
type OrderStatusLog struct {
	ID         int64       `json:"id"`
	OrderID    int64       `json:"order_id"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	ActorType  string      `json:"actor_type"`
	ActorID    int64       `json:"actor_id"`
	Reason     string      `json:"reason"`
	CreatedAt  int64       `json:"created_at"`
}

// OrderTransition 描述一次带前置状态校验的状态更新。
type OrderTransition struct {
	OrderID int64
	From    OrderStatus
	To      OrderStatus
	// Restock 为 true 时把订单行数量加回商品库存（取消订单）。
	Restock         bool
	PaidAmountCents int64
	Reason          string
	Log             OrderStatusLog
	At              int64
	// RefundClaimed 表示调用方已通过 ClaimRefund 占有订单，更新时要求并清除占有标记。
	RefundClaimed bool
	// Tracking 非空时在同一事务中写入物流单号。
	Tracking *Tracking
}

// Tracking 是订单的物流单号。
type Tracking struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	URL            string `json:"url"`
	CreatedAt      int64  `json:"created_at"`
}

// StatusCount 是看板中按状态分组的订单数。
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

// DailySales 是看板中的单日销售额。
type DailySales struct {
	Day          string `json:"day"`
	Orders       int64  `json:"orders"`
	RevenueCents int64  `json:"revenue"`
}

// TopProduct 是按销量排序的商品。
type TopProduct struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Units        int64  `json:"units"`
	RevenueCents int64  `json:"revenue"`
}
