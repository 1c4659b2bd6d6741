package service

import (
	"errors"
	"strings"

	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/queue"
	"github.com/copanier-next/internal/storage"
)

// OrderService 下单与整件校正
type OrderService struct {
	store      *storage.DeliveryStore
	groupStore *storage.GroupStore
	staff      []string
	queue      *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(store *storage.DeliveryStore, groupStore *storage.GroupStore, staff []string, queueClient *queue.Client) *OrderService {
	return &OrderService{store: store, groupStore: groupStore, staff: staff, queue: queueClient}
}

// OrderItemInput 单个商品的订购输入
type OrderItemInput struct {
	Wanted     int `json:"wanted"`
	Adjustment int `json:"adjustment"`
}

// OrderInput 整单输入；Items 以商品 ref 为键
type OrderInput struct {
	PhoneNumber string                    `json:"phone_number"`
	Items       map[string]OrderItemInput `json:"items"`
}

// PlaceOrder 为买家写入整份订单（整单替换）。
// 目录之外的 ref 被忽略；普通买家提交的 adjustment 不生效，改用已落盘的值。
// 结果为空单时直接从配送中删除，不落盘空记录。
// 返回写入后的订单；订单被删除时返回 nil。
func (s *OrderService) PlaceOrder(actor models.Person, deliveryID string, buyer models.Person, input OrderInput) (*models.Order, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}
	isStaff := actor.IsStaff(s.staff)
	switch delivery.Status() {
	case models.StatusOpen:
		// 任何人可下单
	case models.StatusAdjustment:
		if !isStaff {
			return nil, ErrOrdersLocked
		}
	default:
		if !isStaff {
			return nil, ErrDeliveryClosed
		}
	}
	if !isStaff && actor.ID() != buyer.ID() {
		return nil, ErrPermissionDenied
	}

	existing := delivery.Orders[buyer.ID()]
	order := models.NewOrder()
	order.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	order.Paid = existing.Paid
	for _, product := range delivery.Products {
		item, ok := input.Items[product.Ref]
		if !ok {
			continue
		}
		po := models.ProductOrder{Wanted: item.Wanted}
		if isStaff {
			po.Adjustment = item.Adjustment
		} else {
			po.Adjustment = existing.Get(product.Ref).Adjustment
		}
		if po.Wanted <= 0 && po.Adjustment == 0 {
			continue
		}
		order.Set(product.Ref, po)
	}

	if order.IsEmpty() {
		if delivery.HasOrder(buyer.ID()) {
			delete(delivery.Orders, buyer.ID())
			if err := s.store.Persist(delivery); err != nil {
				return nil, err
			}
			logger.Infow("order_deleted", "delivery_id", delivery.ID, "buyer", buyer.ID())
		}
		return nil, nil
	}

	if delivery.Orders == nil {
		delivery.Orders = map[string]models.Order{}
	}
	delivery.Orders[buyer.ID()] = order
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	logger.Infow("order_placed", "delivery_id", delivery.ID, "buyer", buyer.ID(), "products", len(order.Products))

	s.notifyOrderSummary(delivery, buyer)
	return &order, nil
}

// GetOrder 读取某买家的订单
func (s *OrderService) GetOrder(deliveryID string, buyerID string) (*models.Order, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}
	order, ok := delivery.Orders[buyerID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// AdjustProduct 整件校正：管理员为某商品批量录入各买家的带符号修正量。
// 最终数量为负时自动收敛到零（adjustment 被钳到 -wanted）。
func (s *OrderService) AdjustProduct(actor models.Person, deliveryID string, ref string, adjustments map[string]int) (*models.Delivery, error) {
	if !actor.IsStaff(s.staff) {
		return nil, ErrPermissionDenied
	}
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}
	if _, ok := delivery.GetProduct(ref); !ok {
		return nil, ErrProductNotFound
	}

	for buyerID, order := range delivery.Orders {
		adjustment := adjustments[buyerID]
		po := order.Get(ref)
		po.Adjustment = adjustment
		if po.Quantity() < 0 {
			po.Adjustment = -po.Wanted
		}
		order.Set(ref, po)
		delivery.Orders[buyerID] = order
	}
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	logger.Infow("product_adjusted", "delivery_id", delivery.ID, "ref", ref, "actor", actor.Email)
	return delivery, nil
}

// SetPaid 管理员标记某买家的订单是否已付款
func (s *OrderService) SetPaid(actor models.Person, deliveryID string, buyerID string, paid bool) error {
	if !actor.IsStaff(s.staff) {
		return ErrPermissionDenied
	}
	delivery, err := s.load(deliveryID)
	if err != nil {
		return err
	}
	order, ok := delivery.Orders[buyerID]
	if !ok {
		return ErrOrderNotFound
	}
	order.Paid = paid
	delivery.Orders[buyerID] = order
	return s.store.Persist(delivery)
}

// notifyOrderSummary 给买家团体的所有成员投递订单确认邮件任务
func (s *OrderService) notifyOrderSummary(delivery *models.Delivery, buyer models.Person) {
	recipients := []string{buyer.Email}
	if buyer.GroupID != "" && s.groupStore != nil {
		groups, err := s.groupStore.Load()
		if err != nil {
			logger.Errorw("order_summary_groups_load_failed", "error", err)
		} else if group, ok := groups.Groups[buyer.GroupID]; ok {
			recipients = group.Members
		}
	}
	for _, recipient := range recipients {
		if strings.TrimSpace(recipient) == "" {
			continue
		}
		payload := queue.OrderSummaryEmailPayload{
			DeliveryID: delivery.ID,
			BuyerID:    buyer.ID(),
			Recipient:  recipient,
		}
		if err := s.queue.EnqueueOrderSummaryEmail(payload); err != nil {
			logger.Errorw("order_summary_enqueue_failed", "recipient", recipient, "error", err)
		}
	}
}

func (s *OrderService) load(id string) (*models.Delivery, error) {
	delivery, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return delivery, nil
}
