package repository

import (
	"errors"
	"strings"

	"github.com/varuna-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	GetByCodeForUpdate(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	IncrementTimesRedeemed(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券（大小写不敏感）
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCodeForUpdate 根据优惠码加排他锁获取优惠券
// 下单事务内复核兑换上限并递增计数时使用，避免并发下超发。
func (r *GormCouponRepository) GetByCodeForUpdate(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// IncrementTimesRedeemed 增加优惠券兑换次数
func (r *GormCouponRepository) IncrementTimesRedeemed(id uint, delta int) error {
	if delta == 0 {
		delta = 1
	}
	return r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("times_redeemed", gorm.Expr("times_redeemed + ?", delta)).Error
}
