package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.Coupon{},
		&models.PaymentTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.InventoryMovement{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{Order: config.OrderConfig{NoPrefix: "VAR"}}
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	pricingSvc := NewPricingService(productRepo, couponRepo)
	svc := NewOrderService(
		cfg,
		pricingSvc,
		productRepo,
		couponRepo,
		repository.NewPaymentTransactionRepository(db),
		repository.NewAddressRepository(db),
		repository.NewOrderRepository(db),
		repository.NewInventoryMovementRepository(db),
	)
	return svc, db
}

func seedAddress(t *testing.T, db *gorm.DB, userID uint) *models.Address {
	t.Helper()
	address := models.Address{
		UserID:     userID,
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "IN",
	}
	if err := db.Create(&address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return &address
}

func seedPaidTransaction(t *testing.T, db *gorm.DB, userID uint, amount string) *models.PaymentTransaction {
	t.Helper()
	value := decimal.RequireFromString(amount)
	txn := models.PaymentTransaction{
		UserID:            userID,
		Gateway:           constants.GatewayRazorpay,
		Status:            constants.TxStatusPaid,
		Amount:            models.NewMoneyFromDecimal(value),
		AmountMinor:       value.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:          "INR",
		GatewayOrderRef:   fmt.Sprintf("order_seed_%d", time.Now().UnixNano()),
		GatewayPaymentRef: fmt.Sprintf("pay_seed_%d", time.Now().UnixNano()),
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("create paid transaction failed: %v", err)
	}
	return &txn
}

var orderNoPattern = regexp.MustCompile(`^VAR-[0-9A-F]+-[0-9A-F]{4}$`)

func TestCreateOrderCashOnDelivery(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "55.00", true)
	address := seedAddress(t, db, 1)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 3}},
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !orderNoPattern.MatchString(order.OrderNo) {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}
	if order.PaymentStatus != constants.OrderPaymentStatusUnpaid {
		t.Fatalf("cash on delivery order must be unpaid, got: %s", order.PaymentStatus)
	}
	if order.PaymentTransactionID != nil {
		t.Fatalf("cash on delivery order must not consume a transaction")
	}
	if order.Total.String() != "165.00" {
		t.Fatalf("expected total 165.00, got: %s", order.Total.String())
	}
	if order.BillingAddressID != address.ID {
		t.Fatalf("billing address must default to shipping, got: %d", order.BillingAddressID)
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		t.Fatalf("load items failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 3 || items[0].LineTotal.String() != "165.00" {
		t.Fatalf("unexpected order items: %+v", items)
	}

	var movements []models.InventoryMovement
	if err := db.Where("product_id = ?", product.ID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements failed: %v", err)
	}
	if len(movements) != 1 || movements[0].ChangeType != constants.InventoryChangeStockOut || movements[0].Quantity != 3 {
		t.Fatalf("unexpected inventory movements: %+v", movements)
	}
}

func TestCreateOrderConsumesPaidTransaction(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)
	txn := seedPaidTransaction(t, db, 1, "200.00")

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &txn.ID,
		ShippingAddressID:    address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("expected paid order, got: %s", order.PaymentStatus)
	}
	if order.PaymentTransactionID == nil || *order.PaymentTransactionID != txn.ID {
		t.Fatalf("order must reference the consumed transaction")
	}

	var reloaded models.PaymentTransaction
	if err := db.First(&reloaded, txn.ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if reloaded.OrderID == nil || *reloaded.OrderID != order.ID {
		t.Fatalf("transaction must be linked to the order")
	}

	// 同一笔交易不可再次下单
	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &txn.ID,
		ShippingAddressID:    address.ID,
	})
	if !errors.Is(err, ErrTransactionConsumed) {
		t.Fatalf("expected ErrTransactionConsumed, got: %v", err)
	}
}

func TestCreateOrderAmountTolerance(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)

	// 偏差 0.60 超出 0.5 容差
	short := seedPaidTransaction(t, db, 1, "199.40")
	_, err := svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &short.ID,
		ShippingAddressID:    address.ID,
	})
	if !errors.Is(err, ErrTransactionAmountMismatch) {
		t.Fatalf("expected ErrTransactionAmountMismatch, got: %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("failed order creation must not persist orders, got: %d", orderCount)
	}

	// 偏差 0.40 在容差内
	near := seedPaidTransaction(t, db, 1, "199.60")
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &near.ID,
		ShippingAddressID:    address.ID,
	}); err != nil {
		t.Fatalf("create order within tolerance failed: %v", err)
	}
}

func TestCreateOrderTransactionValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)

	// 在线支付必须携带交易
	_, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:     constants.PaymentMethodRazorpay,
		ShippingAddressID: address.ID,
	})
	if !errors.Is(err, ErrTransactionRequired) {
		t.Fatalf("expected ErrTransactionRequired, got: %v", err)
	}

	pending := seedPendingTransaction(t, db, 1, "200.00", "order_pending")
	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &pending.ID,
		ShippingAddressID:    address.ID,
	})
	if !errors.Is(err, ErrTransactionNotPaid) {
		t.Fatalf("expected ErrTransactionNotPaid, got: %v", err)
	}

	other := seedPaidTransaction(t, db, 2, "200.00")
	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:               1,
		Items:                []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod:        constants.PaymentMethodRazorpay,
		PaymentTransactionID: &other.ID,
		ShippingAddressID:    address.ID,
	})
	if !errors.Is(err, ErrTransactionForbidden) {
		t.Fatalf("expected ErrTransactionForbidden, got: %v", err)
	}
}

func TestCreateOrderRedeemsCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)
	one := 1
	coupon := seedCoupon(t, db, models.Coupon{
		Code:           "SAVE10",
		DiscountType:   constants.DiscountTypePercentage,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsActive:       true,
		MaxRedemptions: &one,
	})

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		CouponCode:        "save10",
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Total.String() != "180.00" || order.CouponCode != "SAVE10" {
		t.Fatalf("unexpected coupon order: total=%s code=%s", order.Total.String(), order.CouponCode)
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.TimesRedeemed != 1 {
		t.Fatalf("expected times_redeemed 1, got: %d", reloaded.TimesRedeemed)
	}

	// 额度用尽后再次使用被拒绝
	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 2}},
		CouponCode:        "SAVE10",
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	})
	if !errors.Is(err, ErrCouponRedemptionLimit) {
		t.Fatalf("expected ErrCouponRedemptionLimit, got: %v", err)
	}
}

func TestCreateOrderAddressResolution(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	foreign := seedAddress(t, db, 2)

	// 引用他人地址视同不存在
	_, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: foreign.ID,
	})
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got: %v", err)
	}

	// 内联地址必须包含必填字段
	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:          1,
		Items:           []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:   constants.PaymentMethodCashOnDelivery,
		ShippingAddress: &AddressInput{City: "Bengaluru"},
	})
	if !errors.Is(err, ErrAddressInvalid) {
		t.Fatalf("expected ErrAddressInvalid, got: %v", err)
	}

	// 内联地址落库后复用
	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:        1,
		Items:         []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: constants.PaymentMethodCashOnDelivery,
		ShippingAddress: &AddressInput{
			Line1:      "44 Residency Road",
			City:       "Bengaluru",
			PostalCode: "560025",
		},
	})
	if err != nil {
		t.Fatalf("create order with inline address failed: %v", err)
	}

	var address models.Address
	if err := db.First(&address, order.ShippingAddressID).Error; err != nil {
		t.Fatalf("load created address failed: %v", err)
	}
	if address.UserID != 1 || address.Country != "IN" {
		t.Fatalf("unexpected inline address: %+v", address)
	}
}

func TestCreateOrderScheduleValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)
	base := CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	}

	future := time.Now().Add(48 * time.Hour)
	stray := base
	stray.OrderType = constants.OrderTypeOneTime
	stray.ScheduleDate = &future
	stray.ScheduleSlot = "midnight"
	if _, err := svc.CreateOrder(stray); !errors.Is(err, ErrScheduleInvalid) {
		t.Fatalf("expected ErrScheduleInvalid for one_time with schedule fields, got: %v", err)
	}

	missing := base
	missing.OrderType = constants.OrderTypeScheduled
	if _, err := svc.CreateOrder(missing); !errors.Is(err, ErrScheduleInvalid) {
		t.Fatalf("expected ErrScheduleInvalid for missing date, got: %v", err)
	}

	past := time.Now().Add(-48 * time.Hour)
	stale := base
	stale.OrderType = constants.OrderTypeScheduled
	stale.ScheduleDate = &past
	stale.ScheduleSlot = constants.ScheduleSlotMorning
	if _, err := svc.CreateOrder(stale); !errors.Is(err, ErrScheduleInvalid) {
		t.Fatalf("expected ErrScheduleInvalid for past date, got: %v", err)
	}

	badSlot := base
	badSlot.OrderType = constants.OrderTypeScheduled
	badSlot.ScheduleDate = &future
	badSlot.ScheduleSlot = "midnight"
	if _, err := svc.CreateOrder(badSlot); !errors.Is(err, ErrScheduleInvalid) {
		t.Fatalf("expected ErrScheduleInvalid for bad slot, got: %v", err)
	}

	ok := base
	ok.OrderType = constants.OrderTypeScheduled
	ok.ScheduleDate = &future
	ok.ScheduleSlot = constants.ScheduleSlotEvening
	order, err := svc.CreateOrder(ok)
	if err != nil {
		t.Fatalf("create scheduled order failed: %v", err)
	}
	if order.OrderType != constants.OrderTypeScheduled || order.ScheduleSlot != constants.ScheduleSlotEvening {
		t.Fatalf("unexpected scheduled order: %+v", order)
	}
}

func TestGetOrderByNo(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)

	created, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	order, err := svc.GetOrderByNo(1, created.OrderNo)
	if err != nil {
		t.Fatalf("get order by no failed: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected preloaded items, got: %+v", order.Items)
	}

	if _, err := svc.GetOrderByNo(2, created.OrderNo); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order lookup must return ErrOrderNotFound, got: %v", err)
	}
}

func TestGetOrderByID(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedProduct(t, db, "toned-milk", "100.00", true)
	address := seedAddress(t, db, 1)

	created, err := svc.CreateOrder(CreateOrderInput{
		UserID:            1,
		Items:             []PriceCartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:     constants.PaymentMethodCashOnDelivery,
		ShippingAddressID: address.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	order, err := svc.GetOrder(1, created.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if order.OrderNo != created.OrderNo {
		t.Fatalf("expected order %s, got: %s", created.OrderNo, order.OrderNo)
	}

	if _, err := svc.GetOrder(2, created.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order lookup must return ErrOrderNotFound, got: %v", err)
	}
	if _, err := svc.GetOrder(1, created.ID+100); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order lookup must return ErrOrderNotFound, got: %v", err)
	}
}
