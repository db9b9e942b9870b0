package queue

import (
	"encoding/json"

	"github.com/varuna-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentExpirePending 超时未确认支付交易过期任务
	TaskPaymentExpirePending = constants.TaskPaymentExpirePending
)

// PaymentExpirePendingPayload 支付过期任务负载
type PaymentExpirePendingPayload struct {
	TransactionID uint `json:"transaction_id"`
}

// NewPaymentExpirePendingTask 构建支付过期任务
func NewPaymentExpirePendingTask(payload PaymentExpirePendingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentExpirePending, data), nil
}
