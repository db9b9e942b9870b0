package repository

import (
	"github.com/varuna-next/internal/models"

	"gorm.io/gorm"
)

// InventoryMovementRepository 库存变动数据访问接口
type InventoryMovementRepository interface {
	Create(movement *models.InventoryMovement) error
	CreateBatch(movements []models.InventoryMovement) error
	ListByProduct(productID uint, limit int) ([]models.InventoryMovement, error)
	WithTx(tx *gorm.DB) *GormInventoryMovementRepository
}

// GormInventoryMovementRepository GORM 实现
type GormInventoryMovementRepository struct {
	db *gorm.DB
}

// NewInventoryMovementRepository 创建库存变动仓库
func NewInventoryMovementRepository(db *gorm.DB) *GormInventoryMovementRepository {
	return &GormInventoryMovementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryMovementRepository) WithTx(tx *gorm.DB) *GormInventoryMovementRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryMovementRepository{db: tx}
}

// Create 创建库存变动记录
func (r *GormInventoryMovementRepository) Create(movement *models.InventoryMovement) error {
	return r.db.Create(movement).Error
}

// CreateBatch 批量创建库存变动记录
func (r *GormInventoryMovementRepository) CreateBatch(movements []models.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.Create(&movements).Error
}

// ListByProduct 获取商品库存变动记录
func (r *GormInventoryMovementRepository) ListByProduct(productID uint, limit int) ([]models.InventoryMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var movements []models.InventoryMovement
	if err := r.db.Where("product_id = ?", productID).
		Order("id desc").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
