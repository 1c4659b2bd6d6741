package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/provider"
	"github.com/copanier-next/internal/queue"
	"github.com/copanier-next/internal/service"

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
	mux.HandleFunc(queue.TaskOrderSummaryEmail, c.handleOrderSummaryEmail)
	mux.HandleFunc(queue.TaskHandoverEmail, c.handleHandoverEmail)
}

// handleOrderSummaryEmail 订单确认邮件：按快照当前状态发送；
// 订单在投递后被删除则静默跳过，不算失败。
func (c *Consumer) handleOrderSummaryEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderSummaryEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_summary_unmarshal_failed", "error", err)
		return err
	}
	delivery, err := c.DeliveryStore.Load(payload.DeliveryID)
	if err != nil {
		logger.Warnw("worker_order_summary_load_failed", "delivery_id", payload.DeliveryID, "error", err)
		return err
	}
	if !delivery.HasOrder(payload.BuyerID) {
		logger.Debugw("worker_order_summary_skip_order_gone",
			"delivery_id", payload.DeliveryID,
			"buyer", payload.BuyerID,
		)
		return nil
	}
	if err := c.EmailService.SendOrderSummary(payload.Recipient, delivery, payload.BuyerID); err != nil {
		if isEmailUnavailable(err) {
			logger.Warnw("worker_order_summary_email_unavailable", "error", err)
			return nil
		}
		logger.Errorw("worker_order_summary_send_failed",
			"recipient", payload.Recipient,
			"delivery_id", payload.DeliveryID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_order_summary_sent",
		"recipient", payload.Recipient,
		"delivery_id", payload.DeliveryID,
	)
	return nil
}

// handleHandoverEmail 目录交接通知
func (c *Consumer) handleHandoverEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.HandoverEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_handover_unmarshal_failed", "error", err)
		return err
	}
	old, err := c.DeliveryStore.Load(payload.OldDeliveryID)
	if err != nil {
		logger.Warnw("worker_handover_load_old_failed", "delivery_id", payload.OldDeliveryID, "error", err)
		return err
	}
	next, err := c.DeliveryStore.Load(payload.NewDeliveryID)
	if err != nil {
		logger.Warnw("worker_handover_load_new_failed", "delivery_id", payload.NewDeliveryID, "error", err)
		return err
	}
	if err := c.EmailService.SendHandoverNotice(payload.Recipient, old.Name, next.Name, payload.Body); err != nil {
		if isEmailUnavailable(err) {
			logger.Warnw("worker_handover_email_unavailable", "error", err)
			return nil
		}
		logger.Errorw("worker_handover_send_failed", "recipient", payload.Recipient, "error", err)
		return err
	}
	logger.Infow("worker_handover_sent", "recipient", payload.Recipient, "new_delivery_id", next.ID)
	return nil
}

// isEmailUnavailable 邮件服务未启用/未配置属于部署形态，不重试
func isEmailUnavailable(err error) bool {
	return errors.Is(err, service.ErrEmailDisabled) || errors.Is(err, service.ErrEmailNotConfigured)
}
