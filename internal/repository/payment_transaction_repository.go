package repository

import (
	"errors"
	"time"

	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentTransactionRepository 支付交易数据访问接口
type PaymentTransactionRepository interface {
	GetByID(id uint) (*models.PaymentTransaction, error)
	GetByIDForUpdate(id uint) (*models.PaymentTransaction, error)
	List(filter TransactionListFilter) ([]models.PaymentTransaction, int64, error)
	ListStalePending(before time.Time, limit int) ([]models.PaymentTransaction, error)
	Create(tx *models.PaymentTransaction) error
	Update(tx *models.PaymentTransaction) error
	WithTx(tx *gorm.DB) *GormPaymentTransactionRepository
}

// GormPaymentTransactionRepository GORM 实现
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository 创建支付交易仓库
func NewPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentTransactionRepository) WithTx(tx *gorm.DB) *GormPaymentTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentTransactionRepository{db: tx}
}

// GetByID 根据 ID 获取支付交易
func (r *GormPaymentTransactionRepository) GetByID(id uint) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByIDForUpdate 加排他行锁获取支付交易
// confirm/cancel/下单消费三条路径串行化的关键入口，必须在事务内调用。
func (r *GormPaymentTransactionRepository) GetByIDForUpdate(id uint) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// List 获取支付交易列表
func (r *GormPaymentTransactionRepository) List(filter TransactionListFilter) ([]models.PaymentTransaction, int64, error) {
	var txns []models.PaymentTransaction
	query := r.db.Model(&models.PaymentTransaction{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Gateway != "" {
		query = query.Where("gateway = ?", filter.Gateway)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListStalePending 获取超时未支付的 PENDING 交易
func (r *GormPaymentTransactionRepository) ListStalePending(before time.Time, limit int) ([]models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var txns []models.PaymentTransaction
	if err := r.db.Where("status = ? AND updated_at < ?", constants.TxStatusPending, before).
		Order("id asc").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Create 创建支付交易
func (r *GormPaymentTransactionRepository) Create(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

// Update 更新支付交易
func (r *GormPaymentTransactionRepository) Update(txn *models.PaymentTransaction) error {
	return r.db.Save(txn).Error
}
