package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/payment/razorpay"
	"github.com/varuna-next/internal/repository"
)

// amountTolerance 下单消费交易时允许的金额偏差（货币主单位）
var amountTolerance = decimal.NewFromFloat(0.5)

// PaymentService 支付交易服务，管理网关交易的完整生命周期
type PaymentService struct {
	cfg        *config.Config
	txRepo     repository.PaymentTransactionRepository
	pricingSvc *PricingService
}

// NewPaymentService 创建支付交易服务
func NewPaymentService(cfg *config.Config, txRepo repository.PaymentTransactionRepository, pricingSvc *PricingService) *PaymentService {
	return &PaymentService{cfg: cfg, txRepo: txRepo, pricingSvc: pricingSvc}
}

// gatewayConfig 构建并校验网关配置
func (s *PaymentService) gatewayConfig() (*razorpay.Config, error) {
	gw := &razorpay.Config{
		KeyID:          s.cfg.Razorpay.KeyID,
		KeySecret:      s.cfg.Razorpay.KeySecret,
		BaseURL:        s.cfg.Razorpay.BaseURL,
		Currency:       s.cfg.Razorpay.Currency,
		TimeoutSeconds: s.cfg.Razorpay.TimeoutSeconds,
	}
	gw.Normalize()
	if err := razorpay.ValidateConfig(gw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayNotConfigured, err)
	}
	return gw, nil
}

// InitiatePaymentInput 发起支付请求
type InitiatePaymentInput struct {
	UserID     uint
	Items      []PriceCartItem
	CouponCode string
	Context    context.Context
}

// InitiatePaymentResult 发起支付结果，客户端据此拉起网关收银台
type InitiatePaymentResult struct {
	TransactionID   uint         `json:"transaction_id"`
	GatewayOrderRef string       `json:"gateway_order_ref"`
	Receipt         string       `json:"receipt"`
	Amount          models.Money `json:"amount"`
	AmountMinor     int64        `json:"amount_minor"`
	Currency        string       `json:"currency"`
	KeyID           string       `json:"key_id"`
}

// InitiatePayment 发起支付：对购物车报价，在本地建交易记录并在网关预下单。
// 网关失败时事务整体回滚，不留下孤儿交易行。
func (s *PaymentService) InitiatePayment(input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	gw, err := s.gatewayConfig()
	if err != nil {
		return nil, err
	}

	summary, err := s.pricingSvc.PriceCart(input.Items, input.CouponCode)
	if err != nil {
		return nil, err
	}

	amountMinor := summary.Total.MinorUnits()
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: total must be positive", ErrAmountInvalid)
	}

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var result *InitiatePaymentResult
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)

		txn := &models.PaymentTransaction{
			UserID:      input.UserID,
			Gateway:     constants.GatewayRazorpay,
			Status:      constants.TxStatusCreated,
			Amount:      summary.Total,
			AmountMinor: amountMinor,
			Currency:    gw.Currency,
			Notes: models.JSON{
				"user_id":     input.UserID,
				"coupon_code": summary.CouponCode,
			},
		}
		if err := txRepo.Create(txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		receipt := fmt.Sprintf("txn_%d", txn.ID)
		order, err := razorpay.CreateOrder(ctx, gw, razorpay.CreateOrderInput{
			AmountMinor: amountMinor,
			Currency:    gw.Currency,
			Receipt:     receipt,
			Notes:       map[string]interface{}{"user_id": input.UserID},
		})
		if err != nil {
			logger.Warnw("razorpay create order failed", "user_id", input.UserID, "amount_minor", amountMinor, "error", err)
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}

		txn.Status = constants.TxStatusPending
		txn.GatewayOrderRef = order.OrderID
		txn.Receipt = receipt
		if err := txRepo.Update(txn); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		result = &InitiatePaymentResult{
			TransactionID:   txn.ID,
			GatewayOrderRef: txn.GatewayOrderRef,
			Receipt:         txn.Receipt,
			Amount:          txn.Amount,
			AmountMinor:     txn.AmountMinor,
			Currency:        txn.Currency,
			KeyID:           gw.KeyID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment initiated", "transaction_id", result.TransactionID, "user_id", input.UserID, "gateway_order_ref", result.GatewayOrderRef)
	return result, nil
}

// ConfirmPaymentInput 确认支付请求（客户端回传网关凭据）
type ConfirmPaymentInput struct {
	UserID            uint
	TransactionID     uint
	GatewayOrderRef   string
	GatewayPaymentRef string
	Signature         string
	Context           context.Context
}

// ConfirmPaymentResult 确认支付结果
type ConfirmPaymentResult struct {
	TransactionID uint         `json:"transaction_id"`
	Status        string       `json:"status"`
	Amount        models.Money `json:"amount"`
}

// ConfirmPayment 确认支付：行锁下校验归属、签名与网关侧支付详情后落定 PAID。
// 已 PAID 的交易直接幂等返回，不再访问网关。
func (s *PaymentService) ConfirmPayment(input ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	gw, err := s.gatewayConfig()
	if err != nil {
		return nil, err
	}

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var result *ConfirmPaymentResult
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)

		txn, err := txRepo.GetByIDForUpdate(input.TransactionID)
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		if txn.UserID != input.UserID {
			return ErrTransactionForbidden
		}

		// 重复确认幂等返回，不再触发网关查询
		if txn.Status == constants.TxStatusPaid {
			result = &ConfirmPaymentResult{TransactionID: txn.ID, Status: txn.Status, Amount: txn.Amount}
			return nil
		}
		if txn.Status != constants.TxStatusPending {
			return fmt.Errorf("%w: status %s", ErrTransactionStateInvalid, txn.Status)
		}

		if input.GatewayOrderRef != txn.GatewayOrderRef {
			return ErrOrderRefMismatch
		}
		if err := razorpay.VerifySignature(gw.KeySecret, input.GatewayOrderRef, input.GatewayPaymentRef, input.Signature); err != nil {
			// 签名不合法只拒绝本次请求，交易保持 PENDING 可重试
			return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}

		payment, err := razorpay.FetchPayment(ctx, gw, input.GatewayPaymentRef)
		if err != nil {
			logger.Warnw("razorpay fetch payment failed", "transaction_id", txn.ID, "payment_ref", input.GatewayPaymentRef, "error", err)
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		if payment.OrderID != txn.GatewayOrderRef {
			return fmt.Errorf("%w: payment belongs to another order", ErrGatewayPaymentInvalid)
		}
		if !razorpay.IsPaidStatus(payment.Status) {
			return fmt.Errorf("%w: gateway status %s", ErrGatewayPaymentInvalid, payment.Status)
		}
		if payment.Amount != txn.AmountMinor {
			return fmt.Errorf("%w: expected %d got %d", ErrTransactionAmountMismatch, txn.AmountMinor, payment.Amount)
		}

		txn.Status = constants.TxStatusPaid
		txn.GatewayPaymentRef = input.GatewayPaymentRef
		txn.GatewaySignature = input.Signature
		if err := txRepo.Update(txn); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		result = &ConfirmPaymentResult{TransactionID: txn.ID, Status: txn.Status, Amount: txn.Amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment confirmed", "transaction_id", result.TransactionID, "user_id", input.UserID, "status", result.Status)
	return result, nil
}

// CancelPaymentInput 取消支付请求
type CancelPaymentInput struct {
	UserID        uint
	TransactionID uint
	Reason        string
}

// CancelPaymentResult 取消支付结果
type CancelPaymentResult struct {
	TransactionID uint   `json:"transaction_id"`
	Status        string `json:"status"`
}

// CancelPayment 取消支付。已终态（CANCELLED/FAILED）幂等返回；
// 已 PAID 或已关联订单的交易拒绝取消。
func (s *PaymentService) CancelPayment(input CancelPaymentInput) (*CancelPaymentResult, error) {
	var result *CancelPaymentResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)

		txn, err := txRepo.GetByIDForUpdate(input.TransactionID)
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		if txn.UserID != input.UserID {
			return ErrTransactionForbidden
		}

		switch txn.Status {
		case constants.TxStatusCancelled, constants.TxStatusFailed:
			result = &CancelPaymentResult{TransactionID: txn.ID, Status: txn.Status}
			return nil
		case constants.TxStatusPaid:
			return ErrTransactionAlreadyPaid
		}
		if txn.OrderID != nil {
			return ErrTransactionConsumed
		}

		txn.Status = constants.TxStatusCancelled
		txn.ErrorCode = constants.TxErrorCodeUserCancelled
		txn.ErrorDescription = input.Reason
		if err := txRepo.Update(txn); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		result = &CancelPaymentResult{TransactionID: txn.ID, Status: txn.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment cancelled", "transaction_id", result.TransactionID, "user_id", input.UserID, "status", result.Status)
	return result, nil
}

// GetTransactionForUser 查询用户自己的交易
func (s *PaymentService) GetTransactionForUser(userID, transactionID uint) (*models.PaymentTransaction, error) {
	txn, err := s.txRepo.GetByID(transactionID)
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	if txn.UserID != userID {
		return nil, ErrTransactionForbidden
	}
	return txn, nil
}

// ListTransactions 分页查询用户自己的交易
func (s *PaymentService) ListTransactions(userID uint, filter repository.TransactionListFilter) ([]models.PaymentTransaction, int64, error) {
	filter.UserID = userID
	txns, total, err := s.txRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}

// ExpireTransaction 将单笔仍处于 PENDING 的交易标记为 FAILED。
// 由发起支付时投递的延迟任务触发；交易已确认或已取消时静默跳过。
func (s *PaymentService) ExpireTransaction(transactionID uint) (bool, error) {
	expired := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)
		txn, err := txRepo.GetByIDForUpdate(transactionID)
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}
		if txn == nil || txn.Status != constants.TxStatusPending {
			return nil
		}
		txn.Status = constants.TxStatusFailed
		txn.ErrorCode = constants.TxErrorCodeExpired
		txn.ErrorDescription = "payment not confirmed in time"
		if err := txRepo.Update(txn); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired {
		logger.Infow("expired pending transaction", "transaction_id", transactionID)
	}
	return expired, nil
}

// ExpireStalePending 将超时未确认的 PENDING 交易标记为 FAILED。
// 由后台任务周期性调用，逐条加锁避免与确认、取消路径竞争。
func (s *PaymentService) ExpireStalePending(ttl time.Duration, limit int) (int, error) {
	if ttl <= 0 {
		return 0, errors.New("ttl must be positive")
	}
	before := time.Now().Add(-ttl)

	stale, err := s.txRepo.ListStalePending(before, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale pending: %w", err)
	}

	expired := 0
	for _, candidate := range stale {
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			txRepo := s.txRepo.WithTx(tx)
			txn, err := txRepo.GetByIDForUpdate(candidate.ID)
			if err != nil {
				return err
			}
			// 加锁后重新检查，交易可能已被确认或取消
			if txn == nil || txn.Status != constants.TxStatusPending || txn.UpdatedAt.After(before) {
				return nil
			}
			txn.Status = constants.TxStatusFailed
			txn.ErrorCode = constants.TxErrorCodeExpired
			txn.ErrorDescription = "payment not confirmed in time"
			if err := txRepo.Update(txn); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			logger.Warnw("expire pending transaction failed", "transaction_id", candidate.ID, "error", err)
		}
	}

	if expired > 0 {
		logger.Infow("expired stale pending transactions", "count", expired)
	}
	return expired, nil
}
