package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderSummaryEmail 订单确认邮件任务
	TaskOrderSummaryEmail = "order:summary_email"
	// TaskHandoverEmail 配送交接通知任务
	TaskHandoverEmail = "delivery:handover_email"
)

// OrderSummaryEmailPayload 订单确认邮件任务载荷
type OrderSummaryEmailPayload struct {
	DeliveryID string `json:"delivery_id"`
	BuyerID    string `json:"buyer_id"`
	Recipient  string `json:"recipient"`
}

// HandoverEmailPayload 配送交接通知任务载荷
type HandoverEmailPayload struct {
	OldDeliveryID string `json:"old_delivery_id"`
	NewDeliveryID string `json:"new_delivery_id"`
	Recipient     string `json:"recipient"`
	Body          string `json:"body"`
}

// NewOrderSummaryEmailTask 创建订单确认邮件任务
func NewOrderSummaryEmailTask(payload OrderSummaryEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSummaryEmail, body), nil
}

// NewHandoverEmailTask 创建配送交接通知任务
func NewHandoverEmailTask(payload HandoverEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHandoverEmail, body), nil
}
