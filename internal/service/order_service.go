package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

// OrderService 下单协调服务。下单是系统唯一的复合写入口：
// 重新报价、消费支付交易、落地订单与库存流水在同一事务内完成。
type OrderService struct {
	cfg          *config.Config
	pricingSvc   *PricingService
	productRepo  repository.ProductRepository
	couponRepo   repository.CouponRepository
	txRepo       repository.PaymentTransactionRepository
	addressRepo  repository.AddressRepository
	orderRepo    repository.OrderRepository
	movementRepo repository.InventoryMovementRepository
}

// NewOrderService 创建下单协调服务
func NewOrderService(cfg *config.Config, pricingSvc *PricingService, productRepo repository.ProductRepository, couponRepo repository.CouponRepository, txRepo repository.PaymentTransactionRepository, addressRepo repository.AddressRepository, orderRepo repository.OrderRepository, movementRepo repository.InventoryMovementRepository) *OrderService {
	return &OrderService{
		cfg:          cfg,
		pricingSvc:   pricingSvc,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		txRepo:       txRepo,
		addressRepo:  addressRepo,
		orderRepo:    orderRepo,
		movementRepo: movementRepo,
	}
}

// AddressInput 内联收货地址
type AddressInput struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	UserID               uint
	Items                []PriceCartItem
	CouponCode           string
	PaymentMethod        string
	PaymentTransactionID *uint
	OrderType            string
	ScheduleDate         *time.Time
	ScheduleSlot         string
	ShippingAddressID    uint
	ShippingAddress      *AddressInput
	BillingAddressID     uint
	BillingAddress       *AddressInput
	Context              context.Context
}

// CreateOrder 创建订单。校验顺序：报价（含优惠券）、支付交易、地址。
// 任一步失败整体回滚，不产生半成品订单。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	orderType, err := normalizeOrderType(input.OrderType, input.ScheduleDate, input.ScheduleSlot)
	if err != nil {
		return nil, err
	}
	if input.PaymentMethod != constants.PaymentMethodRazorpay && input.PaymentMethod != constants.PaymentMethodCashOnDelivery {
		return nil, fmt.Errorf("%w: %s", ErrPaymentMethodInvalid, input.PaymentMethod)
	}

	var created *models.Order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)
		txRepo := s.txRepo.WithTx(tx)
		addressRepo := s.addressRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		movementRepo := s.movementRepo.WithTx(tx)

		// 以当前数据库状态重新报价，优惠券行加锁直到事务结束
		summary, err := s.pricingSvc.priceWith(productRepo, couponRepo, input.Items, input.CouponCode, true)
		if err != nil {
			return err
		}

		var txn *models.PaymentTransaction
		if input.PaymentMethod != constants.PaymentMethodCashOnDelivery {
			txn, err = s.consumeTransaction(txRepo, input.UserID, input.PaymentTransactionID, summary.Total)
			if err != nil {
				return err
			}
		}

		shippingID, billingID, err := s.resolveAddresses(addressRepo, input)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNo:           s.generateOrderNo(),
			UserID:            input.UserID,
			ShippingAddressID: shippingID,
			BillingAddressID:  billingID,
			OrderType:         orderType,
			ScheduleDate:      input.ScheduleDate,
			ScheduleSlot:      input.ScheduleSlot,
			Status:            constants.OrderStatusPending,
			PaymentStatus:     constants.OrderPaymentStatusUnpaid,
			PaymentMethod:     input.PaymentMethod,
			CouponCode:        summary.CouponCode,
			Subtotal:          summary.Subtotal,
			Discount:          summary.Discount,
			Tax:               summary.Tax,
			Shipping:          summary.Shipping,
			Total:             summary.Total,
			PlacedAt:          time.Now(),
		}
		if txn != nil {
			order.PaymentTransactionID = &txn.ID
			order.PaymentStatus = constants.OrderPaymentStatusPaid
			order.Status = constants.OrderStatusConfirmed
		}

		items := make([]models.OrderItem, 0, len(summary.Items))
		for _, line := range summary.Items {
			items = append(items, models.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				UnitPrice:   line.UnitPrice,
				Quantity:    line.Quantity,
				LineTotal:   line.LineTotal,
			})
		}

		if err := orderRepo.Create(order, items); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		movements := make([]models.InventoryMovement, 0, len(summary.Items))
		for _, line := range summary.Items {
			if err := productRepo.AdjustStock(line.ProductID, -line.Quantity); err != nil {
				return fmt.Errorf("adjust stock: %w", err)
			}
			movements = append(movements, models.InventoryMovement{
				ProductID:  line.ProductID,
				ChangeType: constants.InventoryChangeStockOut,
				Quantity:   line.Quantity,
				Note:       fmt.Sprintf("order %s", order.OrderNo),
			})
		}
		if err := movementRepo.CreateBatch(movements); err != nil {
			return fmt.Errorf("create inventory movements: %w", err)
		}

		if txn != nil {
			txn.OrderID = &order.ID
			if err := txRepo.Update(txn); err != nil {
				return fmt.Errorf("link transaction: %w", err)
			}
		}

		if summary.coupon != nil {
			if err := couponRepo.IncrementTimesRedeemed(summary.coupon.ID, 1); err != nil {
				return fmt.Errorf("redeem coupon: %w", err)
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order created", "order_no", created.OrderNo, "user_id", input.UserID, "total", created.Total.String(), "payment_method", created.PaymentMethod)
	return created, nil
}

// consumeTransaction 在行锁下校验并消费一笔已支付的网关交易
func (s *OrderService) consumeTransaction(txRepo repository.PaymentTransactionRepository, userID uint, transactionID *uint, total models.Money) (*models.PaymentTransaction, error) {
	if transactionID == nil || *transactionID == 0 {
		return nil, ErrTransactionRequired
	}

	txn, err := txRepo.GetByIDForUpdate(*transactionID)
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	if txn.UserID != userID {
		return nil, ErrTransactionForbidden
	}
	if txn.Gateway != constants.GatewayRazorpay {
		return nil, fmt.Errorf("%w: %s", ErrTransactionGatewayInvalid, txn.Gateway)
	}
	if txn.Status != constants.TxStatusPaid {
		return nil, fmt.Errorf("%w: status %s", ErrTransactionNotPaid, txn.Status)
	}
	if txn.OrderID != nil {
		return nil, ErrTransactionConsumed
	}
	if txn.Amount.Decimal.Sub(total.Decimal).Abs().GreaterThan(amountTolerance) {
		return nil, fmt.Errorf("%w: paid %s order %s", ErrTransactionAmountMismatch, txn.Amount.String(), total.String())
	}

	return txn, nil
}

// resolveAddresses 解析收货与账单地址。按 ID 引用时必须属于下单用户；
// 内联地址落库后复用；账单地址缺省跟随收货地址。
func (s *OrderService) resolveAddresses(addressRepo repository.AddressRepository, input CreateOrderInput) (uint, uint, error) {
	shippingID, err := s.resolveAddress(addressRepo, input.UserID, input.ShippingAddressID, input.ShippingAddress)
	if err != nil {
		return 0, 0, err
	}
	if shippingID == 0 {
		return 0, 0, fmt.Errorf("%w: shipping address required", ErrAddressInvalid)
	}

	billingID, err := s.resolveAddress(addressRepo, input.UserID, input.BillingAddressID, input.BillingAddress)
	if err != nil {
		return 0, 0, err
	}
	if billingID == 0 {
		billingID = shippingID
	}

	return shippingID, billingID, nil
}

func (s *OrderService) resolveAddress(addressRepo repository.AddressRepository, userID, addressID uint, inline *AddressInput) (uint, error) {
	if addressID != 0 {
		address, err := addressRepo.GetByIDAndUser(addressID, userID)
		if err != nil {
			return 0, fmt.Errorf("load address: %w", err)
		}
		if address == nil {
			return 0, fmt.Errorf("%w: id %d", ErrAddressNotFound, addressID)
		}
		return address.ID, nil
	}

	if inline == nil {
		return 0, nil
	}
	if strings.TrimSpace(inline.Line1) == "" || strings.TrimSpace(inline.City) == "" || strings.TrimSpace(inline.PostalCode) == "" {
		return 0, fmt.Errorf("%w: line1, city and postal_code are required", ErrAddressInvalid)
	}

	address := &models.Address{
		UserID:     userID,
		Line1:      strings.TrimSpace(inline.Line1),
		Line2:      strings.TrimSpace(inline.Line2),
		City:       strings.TrimSpace(inline.City),
		State:      strings.TrimSpace(inline.State),
		PostalCode: strings.TrimSpace(inline.PostalCode),
		Country:    strings.TrimSpace(inline.Country),
		Phone:      strings.TrimSpace(inline.Phone),
	}
	if address.Country == "" {
		address.Country = "IN"
	}
	if err := addressRepo.Create(address); err != nil {
		return 0, fmt.Errorf("create address: %w", err)
	}
	return address.ID, nil
}

// normalizeOrderType 校验订单类型与配送排期
func normalizeOrderType(orderType string, scheduleDate *time.Time, scheduleSlot string) (string, error) {
	if orderType == "" {
		orderType = constants.OrderTypeOneTime
	}
	switch orderType {
	case constants.OrderTypeOneTime:
		if scheduleDate != nil || scheduleSlot != "" {
			return "", fmt.Errorf("%w: one_time order cannot carry schedule fields", ErrScheduleInvalid)
		}
		return orderType, nil
	case constants.OrderTypeScheduled:
		if scheduleDate == nil {
			return "", fmt.Errorf("%w: schedule_date required", ErrScheduleInvalid)
		}
		today := time.Now().Truncate(24 * time.Hour)
		if scheduleDate.Before(today) {
			return "", fmt.Errorf("%w: schedule_date in the past", ErrScheduleInvalid)
		}
		if scheduleSlot != constants.ScheduleSlotMorning && scheduleSlot != constants.ScheduleSlotEvening {
			return "", fmt.Errorf("%w: unknown slot %q", ErrScheduleInvalid, scheduleSlot)
		}
		return orderType, nil
	default:
		return "", fmt.Errorf("%w: unknown order type %q", ErrScheduleInvalid, orderType)
	}
}

// generateOrderNo 生成订单号：前缀 + 毫秒时间戳十六进制 + 随机后缀。
// 唯一性最终由 order_no 的唯一索引兜底。
func (s *OrderService) generateOrderNo() string {
	prefix := s.cfg.Order.NoPrefix
	if prefix == "" {
		prefix = "VAR"
	}
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%X-%04X", prefix, time.Now().UnixMilli(), time.Now().UnixNano()&0xFFFF)
	}
	return fmt.Sprintf("%s-%X-%02X%02X", prefix, time.Now().UnixMilli(), suffix[0], suffix[1])
}
