package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`                           // 优惠码（统一大写存储）
	DiscountType   string         `gorm:"not null" json:"discount_type"`                              // 折扣类型（percentage/amount）
	DiscountValue  Money          `gorm:"type:decimal(20,2);not null" json:"discount_value"`          // 折扣数值（百分比或固定金额）
	MinSubtotal    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_subtotal"`  // 使用门槛
	ValidFrom      *time.Time     `gorm:"index" json:"valid_from"`                                    // 生效时间
	ValidUntil     *time.Time     `gorm:"index" json:"valid_until"`                                   // 失效时间
	MaxRedemptions *int           `json:"max_redemptions"`                                            // 总兑换上限（nil 表示不限制）
	TimesRedeemed  int            `gorm:"not null;default:0" json:"times_redeemed"`                   // 已兑换次数
	IsActive       bool           `gorm:"not null" json:"is_active"`                                  // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
