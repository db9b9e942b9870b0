package worker

import (
	"context"
	"encoding/json"

	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/provider"
	"github.com/varuna-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentExpirePending, c.handlePaymentExpirePending)
}

func (c *Consumer) handlePaymentExpirePending(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentExpirePendingPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.TransactionID == 0 {
		logger.Debugw("worker_payment_expire_skip_invalid_payload", "transaction_id", payload.TransactionID)
		return nil
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_payment_expire_skip_payment_service_nil", "transaction_id", payload.TransactionID)
		return nil
	}
	expired, err := c.PaymentService.ExpireTransaction(payload.TransactionID)
	if err != nil {
		logger.Warnw("worker_payment_expire_failed", "transaction_id", payload.TransactionID, "error", err)
		return err
	}
	if !expired {
		logger.Debugw("worker_payment_expire_skip_settled", "transaction_id", payload.TransactionID)
	}
	return nil
}
