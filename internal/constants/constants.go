package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
)

// 订单类型常量
const (
	OrderTypeOneTime   = "one_time"
	OrderTypeScheduled = "scheduled"
)

// 订单支付状态常量
const (
	OrderPaymentStatusUnpaid = "unpaid"
	OrderPaymentStatusPaid   = "paid"
)

// 支付方式常量
const (
	PaymentMethodRazorpay       = "razorpay"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// 支付交易状态常量（网关支付生命周期）
const (
	TxStatusCreated   = "CREATED"
	TxStatusPending   = "PENDING"
	TxStatusPaid      = "PAID"
	TxStatusFailed    = "FAILED"
	TxStatusCancelled = "CANCELLED"
)

// 网关标识常量
const (
	GatewayRazorpay = "razorpay"
)

// 网关侧支付状态常量
const (
	GatewayPaymentCaptured   = "captured"
	GatewayPaymentAuthorized = "authorized"
)

// 支付交易错误码常量
const (
	TxErrorCodeUserCancelled = "user_cancelled"
	TxErrorCodeExpired       = "expired"
)

// 优惠券折扣类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeAmount     = "amount"
)

// 库存变动类型常量
const (
	InventoryChangeStockIn    = "stock_in"
	InventoryChangeStockOut   = "stock_out"
	InventoryChangeAdjustment = "adjustment"
)

// 配送时段常量
const (
	ScheduleSlotMorning = "morning"
	ScheduleSlotEvening = "evening"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// 默认币种（网关小额单位为 paise）
const DefaultCurrency = "INR"

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskPaymentExpirePending = "payment:expire_pending"
)
