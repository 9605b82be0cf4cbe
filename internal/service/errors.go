// 文件路径: internal/service/errors.go
// 模块说明: 服务层哨兵错误，处理器按 errors.Is 映射为 HTTP 状态码与 i18n 文案。
package service

import "errors"

var (
	// ErrNotFound indicates requested resource does not exist.
	ErrNotFound = errors.New("service: not found / 未找到资源")
	// ErrInvalidInput indicates a malformed request payload.
	ErrInvalidInput = errors.New("service: invalid input / 参数无效")
	// ErrInvalidCredentials indicates provided credentials are wrong.
	ErrInvalidCredentials = errors.New("service: invalid credentials / 凭证无效")
	// ErrRateLimited indicates caller exceeded allowed attempts.
	ErrRateLimited = errors.New("service: rate limited / 请求过于频繁")
	// ErrAccountDisabled indicates the account is banned.
	ErrAccountDisabled = errors.New("service: account disabled / 账号已禁用")
	// ErrUnauthorized indicates missing or invalid auth tokens.
	ErrUnauthorized = errors.New("service: unauthorized / 未授权")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("service: forbidden / 无权限")
	// ErrInvalidRefreshToken indicates refresh token problems.
	ErrInvalidRefreshToken = errors.New("service: invalid refresh token / 刷新令牌无效")
	// ErrInvalidEmail indicates malformed email inputs.
	ErrInvalidEmail = errors.New("service: invalid email / 邮箱无效")
	// ErrInvalidPassword indicates password does not meet requirements.
	ErrInvalidPassword = errors.New("service: invalid password / 密码无效")
	// ErrEmailExists indicates email already registered.
	ErrEmailExists = errors.New("service: email already exists / 邮箱已存在")
	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("service: invalid role / 角色无效")
	// ErrRegistrationClosed indicates sign-up is disabled by settings.
	ErrRegistrationClosed = errors.New("service: registration closed / 暂停注册")
	// ErrSelfModification indicates an admin tried to ban or demote themselves.
	ErrSelfModification = errors.New("service: cannot modify own account / 不能修改自己的账号")

	// ErrCategoryNotFound indicates an unknown category id.
	ErrCategoryNotFound = errors.New("service: category not found / 分类不存在")
	// ErrCategoryExists indicates duplicate category name or slug.
	ErrCategoryExists = errors.New("service: category already exists / 分类已存在")
	// ErrCategoryInUse indicates products are still tagged with the category.
	ErrCategoryInUse = errors.New("service: category in use / 分类仍被商品使用")
	// ErrProductNotFound indicates an unknown product id.
	ErrProductNotFound = errors.New("service: product not found / 商品不存在")
	// ErrSlugExists indicates the product slug is taken.
	ErrSlugExists = errors.New("service: slug already exists / 商品别名已存在")
	// ErrInvalidPricing indicates cost, margin or discount out of range.
	ErrInvalidPricing = errors.New("service: invalid pricing / 价格参数无效")
	// ErrProductUnavailable indicates the product is not purchasable.
	ErrProductUnavailable = errors.New("service: product unavailable / 商品不可购买")
	// ErrInsufficientStock indicates requested quantity exceeds stock.
	ErrInsufficientStock = errors.New("service: insufficient stock / 库存不足")
	// ErrQuantityLimit indicates a cart line exceeds the per-line maximum.
	ErrQuantityLimit = errors.New("service: quantity limit exceeded / 超出单品数量上限")
	// ErrCartEmpty indicates checkout with an empty cart.
	ErrCartEmpty = errors.New("service: cart is empty / 购物车为空")

	// ErrAddressNotFound indicates an unknown or foreign address.
	ErrAddressNotFound = errors.New("service: address not found / 地址不存在")
	// ErrAddressLimit indicates the per-user address cap is reached.
	ErrAddressLimit = errors.New("service: address limit reached / 地址数量已达上限")

	// ErrOrderNotFound indicates an unknown or foreign order.
	ErrOrderNotFound = errors.New("service: order not found / 订单不存在")
	// ErrInvalidTransition indicates the status change is not allowed.
	ErrInvalidTransition = errors.New("service: invalid status transition / 订单状态不允许变更")
	// ErrCancelWindowExpired indicates the user cancel window has passed.
	ErrCancelWindowExpired = errors.New("service: cancel window expired / 已超过可取消时间")
	// ErrOrderConflict indicates the order changed concurrently.
	ErrOrderConflict = errors.New("service: order changed concurrently / 订单状态已被修改")
	// ErrPaymentNotCompleted indicates the gateway has not captured funds yet.
	ErrPaymentNotCompleted = errors.New("service: payment not completed / 支付未完成")
	// ErrPaymentFailed indicates the gateway call failed.
	ErrPaymentFailed = errors.New("service: payment gateway error / 支付网关错误")
	// ErrRefundFailed indicates the refund could not be issued.
	ErrRefundFailed = errors.New("service: refund failed / 退款失败")
	// ErrTrackingNotAllowed indicates tracking added outside Paid or OnRoute.
	ErrTrackingNotAllowed = errors.New("service: tracking not allowed for order status / 当前订单状态不能添加物流")
	// ErrTrackingExists indicates a duplicate carrier and tracking number.
	ErrTrackingExists = errors.New("service: tracking already exists / 物流单号已存在")

	// ErrUploadTooLarge indicates the file exceeds the configured size.
	ErrUploadTooLarge = errors.New("service: file too large / 文件过大")
	// ErrUnsupportedMedia indicates a non-image upload.
	ErrUnsupportedMedia = errors.New("service: unsupported media type / 不支持的文件类型")
)
