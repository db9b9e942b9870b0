package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentTransaction 支付交易表
// 记录一次经由外部网关的支付尝试，在被订单消费前独立于任何订单存在。
type PaymentTransaction struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                 // 主键
	UserID            uint           `gorm:"index;not null" json:"user_id"`                        // 所属用户ID
	Gateway           string         `gorm:"not null" json:"gateway"`                              // 网关标识
	Status            string         `gorm:"index;not null" json:"status"`                         // 状态机状态
	Amount            Money          `gorm:"type:decimal(20,2);not null" json:"amount"`            // 金额
	AmountMinor       int64          `gorm:"not null" json:"amount_minor"`                         // 金额（最小币值单位）
	Currency          string         `gorm:"not null" json:"currency"`                             // 币种
	GatewayOrderRef   string         `gorm:"index" json:"gateway_order_ref"`                       // 网关订单号
	GatewayPaymentRef string         `gorm:"index" json:"gateway_payment_ref"`                     // 网关支付流水号
	GatewaySignature  string         `gorm:"type:varchar(128)" json:"-"`                           // 网关签名
	Receipt           string         `gorm:"type:varchar(64)" json:"receipt"`                      // 商户收据号
	Notes             JSON           `gorm:"type:json" json:"notes"`                               // 附加信息
	ErrorCode         string         `gorm:"type:varchar(64)" json:"error_code"`                   // 错误码
	ErrorDescription  string         `gorm:"type:varchar(255)" json:"error_description"`           // 错误描述
	OrderID           *uint          `gorm:"index" json:"order_id,omitempty"`                      // 被消费后回链的订单ID
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间
}

// TableName 指定表名
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
