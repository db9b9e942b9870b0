package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo              string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID               uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	ShippingAddressID    uint           `gorm:"index;not null" json:"shipping_address_id"`                 // 收货地址ID
	BillingAddressID     uint           `gorm:"index;not null" json:"billing_address_id"`                  // 账单地址ID
	OrderType            string         `gorm:"not null;default:'one_time'" json:"order_type"`             // 订单类型（one_time/scheduled）
	ScheduleDate         *time.Time     `gorm:"index" json:"schedule_date"`                                // 预约配送日期
	ScheduleSlot         string         `gorm:"type:varchar(20);default:''" json:"schedule_slot"`          // 预约配送时段
	Status               string         `gorm:"index;not null" json:"status"`                              // 订单状态
	PaymentStatus        string         `gorm:"not null" json:"payment_status"`                            // 支付状态
	PaymentMethod        string         `gorm:"not null" json:"payment_method"`                            // 支付方式
	PaymentTransactionID *uint          `gorm:"index" json:"payment_transaction_id,omitempty"`             // 消费的支付交易ID
	CouponCode           string         `gorm:"index;default:''" json:"coupon_code,omitempty"`             // 使用的优惠码
	Subtotal             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计
	Discount             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额
	Tax                  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`          // 税费
	Shipping             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping"`     // 运费
	Total                Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`        // 应付总额
	PlacedAt             time.Time      `gorm:"index" json:"placed_at"`                                    // 下单时间
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
