package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/provider"
	"github.com/varuna-next/internal/queue"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Coupon{}, &models.PaymentTransaction{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Payment.PendingExpireMinutes = 30

	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	txRepo := repository.NewPaymentTransactionRepository(db)
	pricingSvc := service.NewPricingService(productRepo, couponRepo)

	container := &provider.Container{
		Config:         cfg,
		PaymentService: service.NewPaymentService(cfg, txRepo, pricingSvc),
	}
	return NewConsumer(container), db
}

func seedPendingTxn(t *testing.T, db *gorm.DB) *models.PaymentTransaction {
	t.Helper()
	txn := &models.PaymentTransaction{
		UserID:   1,
		Gateway:  constants.GatewayRazorpay,
		Status:   constants.TxStatusPending,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		Currency: constants.DefaultCurrency,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("seed transaction failed: %v", err)
	}
	return txn
}

func expireTask(t *testing.T, transactionID uint) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(queue.PaymentExpirePendingPayload{TransactionID: transactionID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskPaymentExpirePending, data)
}

func TestHandlePaymentExpirePending(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	txn := seedPendingTxn(t, db)

	if err := consumer.handlePaymentExpirePending(context.Background(), expireTask(t, txn.ID)); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var updated models.PaymentTransaction
	if err := db.First(&updated, txn.ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if updated.Status != constants.TxStatusFailed {
		t.Fatalf("status want %s got %s", constants.TxStatusFailed, updated.Status)
	}
	if updated.ErrorCode != constants.TxErrorCodeExpired {
		t.Fatalf("error code want %s got %s", constants.TxErrorCodeExpired, updated.ErrorCode)
	}
}

func TestHandlePaymentExpirePendingSkipsSettled(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	txn := seedPendingTxn(t, db)
	if err := db.Model(txn).UpdateColumn("status", constants.TxStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	if err := consumer.handlePaymentExpirePending(context.Background(), expireTask(t, txn.ID)); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var updated models.PaymentTransaction
	if err := db.First(&updated, txn.ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if updated.Status != constants.TxStatusPaid {
		t.Fatalf("settled transaction should stay %s, got %s", constants.TxStatusPaid, updated.Status)
	}
}

func TestHandlePaymentExpirePendingIgnoresInvalidPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskPaymentExpirePending, []byte(`{"transaction_id":0}`))
	if err := consumer.handlePaymentExpirePending(context.Background(), task); err != nil {
		t.Fatalf("zero transaction id should be ignored, got %v", err)
	}

	task = asynq.NewTask(queue.TaskPaymentExpirePending, []byte(`{"transaction_id":99999}`))
	if err := consumer.handlePaymentExpirePending(context.Background(), task); err != nil {
		t.Fatalf("missing transaction should be ignored, got %v", err)
	}
}
