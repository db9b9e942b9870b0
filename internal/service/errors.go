package service

import "errors"

// 校验类错误（客户端 400）
var (
	ErrOrderItemsRequired        = errors.New("order items required")
	ErrOrderItemInvalid          = errors.New("order item invalid")
	ErrProductNotFound           = errors.New("product not found")
	ErrProductNotAvailable       = errors.New("product not available")
	ErrAmountInvalid             = errors.New("amount invalid")
	ErrPaymentMethodInvalid      = errors.New("payment method invalid")
	ErrScheduleInvalid           = errors.New("schedule invalid")
	ErrAddressInvalid            = errors.New("address invalid")
	ErrTransactionRequired       = errors.New("payment transaction required")
	ErrTransactionNotPaid        = errors.New("payment transaction not paid")
	ErrTransactionGatewayInvalid = errors.New("payment transaction gateway mismatch")
	ErrTransactionAmountMismatch = errors.New("payment transaction amount mismatch")
	ErrOrderRefMismatch          = errors.New("gateway order reference mismatch")
	ErrSignatureInvalid          = errors.New("payment signature invalid")
	ErrGatewayPaymentInvalid     = errors.New("gateway payment not acceptable")
)

// 优惠券类错误（客户端 400）
var (
	ErrCouponInvalid         = errors.New("coupon invalid")
	ErrCouponNotFound        = errors.New("coupon not found")
	ErrCouponInactive        = errors.New("coupon inactive")
	ErrCouponNotStarted      = errors.New("coupon not started")
	ErrCouponExpired         = errors.New("coupon expired")
	ErrCouponMinSubtotal     = errors.New("coupon minimum subtotal not met")
	ErrCouponRedemptionLimit = errors.New("coupon redemption limit reached")
)

// 权限类错误（403）
var (
	ErrTransactionForbidden = errors.New("payment transaction belongs to another user")
)

// 资源不存在类错误（404）
var (
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrAddressNotFound     = errors.New("address not found")
	ErrNotFound            = errors.New("resource not found")
)

// 状态冲突类错误（409）
var (
	ErrTransactionAlreadyPaid  = errors.New("payment transaction already paid")
	ErrTransactionConsumed     = errors.New("payment transaction already linked to an order")
	ErrTransactionStateInvalid = errors.New("payment transaction state invalid")
)

// 配置类错误（500）
var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)

// 网关类错误（502）
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// 认证相关错误
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("email invalid")
	ErrPasswordTooWeak    = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)
