package models

import "time"

// InventoryMovement 库存变动表
// 每个订单项在下单事务内生成一条 stock_out 记录。
type InventoryMovement struct {
	ID         uint      `gorm:"primarykey" json:"id"`              // 主键
	ProductID  uint      `gorm:"index;not null" json:"product_id"`  // 商品ID
	ChangeType string    `gorm:"index;not null" json:"change_type"` // 变动类型（stock_in/stock_out/adjustment）
	Quantity   int       `gorm:"not null" json:"quantity"`          // 变动数量
	Note       string    `gorm:"type:varchar(255)" json:"note"`     // 备注
	CreatedAt  time.Time `gorm:"index" json:"created_at"`           // 创建时间
}

// TableName 指定表名
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
