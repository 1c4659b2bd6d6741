package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/queue"
	"github.com/copanier-next/internal/storage"
)

// DeliveryService 配送生命周期与目录维护
type DeliveryService struct {
	store *storage.DeliveryStore
	staff []string
	queue *queue.Client
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(store *storage.DeliveryStore, staff []string, queueClient *queue.Client) *DeliveryService {
	return &DeliveryService{store: store, staff: staff, queue: queueClient}
}

// DeliveryInput 创建/更新配送的输入
type DeliveryInput struct {
	Name         string    `json:"name"`
	Contact      string    `json:"contact"`
	ContactPhone string    `json:"contact_phone"`
	Instructions string    `json:"instructions"`
	Where        string    `json:"where"`
	FromDate     time.Time `json:"from_date"`
	ToDate       time.Time `json:"to_date"`
	OrderBefore  time.Time `json:"order_before"`
}

func (in DeliveryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &models.FieldError{Field: "name", Value: in.Name, Err: models.ErrInvalidRef}
	}
	if strings.TrimSpace(in.Contact) == "" {
		return &models.FieldError{Field: "contact", Value: in.Contact, Err: models.ErrInvalidRef}
	}
	if in.FromDate.IsZero() || in.OrderBefore.IsZero() {
		return models.ErrInvalidDate
	}
	if in.OrderBefore.After(in.FromDate) {
		return fmt.Errorf("%w: order deadline after delivery date", models.ErrInvalidDate)
	}
	return nil
}

func (in DeliveryInput) apply(d *models.Delivery) {
	d.Name = strings.TrimSpace(in.Name)
	d.Contact = strings.TrimSpace(in.Contact)
	d.ContactPhone = strings.TrimSpace(in.ContactPhone)
	d.Instructions = in.Instructions
	d.Where = strings.TrimSpace(in.Where)
	d.FromDate = in.FromDate
	d.ToDate = in.ToDate
	if d.ToDate.IsZero() {
		d.ToDate = in.FromDate
	}
	d.OrderBefore = in.OrderBefore
}

// Get 按 id 读取配送
func (s *DeliveryService) Get(id string) (*models.Delivery, error) {
	delivery, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return delivery, nil
}

// Incoming 配送日未到的配送
func (s *DeliveryService) Incoming() ([]*models.Delivery, error) {
	return s.store.Incoming()
}

// Former 配送日已过的配送
func (s *DeliveryService) Former() ([]*models.Delivery, error) {
	return s.store.Former()
}

// Archived 归档命名空间下的全部配送
func (s *DeliveryService) Archived() ([]*models.Delivery, error) {
	ids, err := s.store.List("archive")
	if err != nil {
		return nil, err
	}
	deliveries := make([]*models.Delivery, 0, len(ids))
	for _, id := range ids {
		delivery, err := s.store.Load(id)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, nil
}

// Create 创建新配送；仅管理员可用
func (s *DeliveryService) Create(actor models.Person, input DeliveryInput) (*models.Delivery, error) {
	if !actor.IsStaff(s.staff) {
		return nil, ErrPermissionDenied
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	delivery := &models.Delivery{
		Producers: map[string]models.Producer{},
		Orders:    map[string]models.Order{},
	}
	input.apply(delivery)
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	logger.Infow("delivery_created", "delivery_id", delivery.ID, "actor", actor.Email)
	return delivery, nil
}

// Update 修改配送基础信息；仅管理员可用
func (s *DeliveryService) Update(actor models.Person, id string, input DeliveryInput) (*models.Delivery, error) {
	if !actor.IsStaff(s.staff) {
		return nil, ErrPermissionDenied
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	delivery, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	input.apply(delivery)
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// Archive 归档配送，返回带归档前缀的新 id
func (s *DeliveryService) Archive(actor models.Person, id string) (string, error) {
	if !actor.IsStaff(s.staff) {
		return "", ErrPermissionDenied
	}
	newID, err := s.store.Archive(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrDeliveryNotFound
		}
		return "", err
	}
	logger.Infow("delivery_archived", "delivery_id", id, "archived_id", newID, "actor", actor.Email)
	return newID, nil
}

// Unarchive 把归档配送移回当前命名空间
func (s *DeliveryService) Unarchive(actor models.Person, id string) (string, error) {
	if !actor.IsStaff(s.staff) {
		return "", ErrPermissionDenied
	}
	newID, err := s.store.Unarchive(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrDeliveryNotFound
		}
		return "", err
	}
	logger.Infow("delivery_unarchived", "delivery_id", id, "restored_id", newID, "actor", actor.Email)
	return newID, nil
}

// ReferentUpdate 交接时替换某供应商的对接人
type ReferentUpdate struct {
	Referent     string `json:"referent"`
	ReferentName string `json:"referent_name"`
	ReferentTel  string `json:"referent_tel"`
}

// HandOver 把旧配送的目录移交给一场新配送：深拷贝商品与供应商，
// 按需替换对接人，旧配送标记为已接替（终态），并向各对接人发交接通知。
func (s *DeliveryService) HandOver(actor models.Person, oldID string, input DeliveryInput, referents map[string]ReferentUpdate, emailBody string) (*models.Delivery, error) {
	if !actor.IsStaff(s.staff) {
		return nil, ErrPermissionDenied
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	old, err := s.Get(oldID)
	if err != nil {
		return nil, err
	}
	if old.Over {
		return nil, ErrDeliveryClosed
	}

	products, producers := old.CloneCatalog()
	for producerID, update := range referents {
		producer, ok := producers[producerID]
		if !ok {
			return nil, ErrProducerNotFound
		}
		producer.Referent = strings.TrimSpace(update.Referent)
		producer.ReferentName = strings.TrimSpace(update.ReferentName)
		producer.ReferentTel = strings.TrimSpace(update.ReferentTel)
		producers[producerID] = producer
	}
	next := &models.Delivery{
		Products:  products,
		Producers: producers,
		Orders:    map[string]models.Order{},
	}
	input.apply(next)
	if err := s.store.Persist(next); err != nil {
		return nil, err
	}

	old.Over = true
	if err := s.store.Persist(old); err != nil {
		return nil, err
	}
	logger.Infow("delivery_handed_over", "old_id", old.ID, "new_id", next.ID, "actor", actor.Email)

	for _, referent := range next.GetReferents() {
		if referent == "" {
			continue
		}
		payload := queue.HandoverEmailPayload{
			OldDeliveryID: old.ID,
			NewDeliveryID: next.ID,
			Recipient:     referent,
			Body:          emailBody,
		}
		if err := s.queue.EnqueueHandoverEmail(payload); err != nil {
			logger.Errorw("handover_email_enqueue_failed", "recipient", referent, "error", err)
		}
	}
	return next, nil
}

// ProductInput 商品录入；价格以原始字符串传入，由引擎做币符清洗
type ProductInput struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
	Packing     int    `json:"packing"`
	Producer    string `json:"producer"`
	Rupture     string `json:"rupture"`
}

// UpsertProduct 新增或更新商品（按 ref 定位），刷新报价时间
func (s *DeliveryService) UpsertProduct(actor models.Person, deliveryID string, input ProductInput) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	price, err := models.ParsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	product := models.Product{
		Ref:         strings.TrimSpace(input.Ref),
		Name:        strings.TrimSpace(input.Name),
		Price:       price,
		Unit:        strings.TrimSpace(input.Unit),
		Description: input.Description,
		Packing:     input.Packing,
		Producer:    strings.TrimSpace(input.Producer),
		Rupture:     strings.TrimSpace(input.Rupture),
		LastUpdate:  time.Now(),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	replaced := false
	for i := range delivery.Products {
		if delivery.Products[i].Ref == product.Ref {
			delivery.Products[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		delivery.Products = append(delivery.Products, product)
	}
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// DeleteProduct 删除商品，同时从所有订单里摘掉
func (s *DeliveryService) DeleteProduct(actor models.Person, deliveryID string, ref string) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	if _, ok := delivery.DeleteProduct(ref); !ok {
		return nil, ErrProductNotFound
	}
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// UpsertProducer 新增或更新供应商
func (s *DeliveryService) UpsertProducer(actor models.Person, deliveryID string, producer models.Producer) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(producer.ID) == "" {
		return nil, &models.FieldError{Field: "id", Value: producer.ID, Err: models.ErrInvalidRef}
	}
	if delivery.Producers == nil {
		delivery.Producers = map[string]models.Producer{}
	}
	delivery.Producers[producer.ID] = producer
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// DeleteProducer 删除供应商及其全部商品和运费记录
func (s *DeliveryService) DeleteProducer(actor models.Person, deliveryID string, producerID string) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	if _, ok := delivery.Producers[producerID]; !ok {
		return nil, ErrProducerNotFound
	}
	for _, product := range delivery.GetProductsBy(producerID) {
		delivery.DeleteProduct(product.Ref)
	}
	delete(delivery.Producers, producerID)
	delete(delivery.Shipping, producerID)
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// SetShipping 设置某供应商的整笔固定运费
func (s *DeliveryService) SetShipping(actor models.Person, deliveryID string, producerID string, fee models.Money) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	if _, ok := delivery.Producers[producerID]; !ok {
		return nil, ErrProducerNotFound
	}
	if delivery.Shipping == nil {
		delivery.Shipping = map[string]models.Money{}
	}
	delivery.Shipping[producerID] = fee
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// ValidatePrices 对接人确认报价仍然有效，刷新全部商品的报价时间
func (s *DeliveryService) ValidatePrices(actor models.Person, deliveryID string) (*models.Delivery, error) {
	delivery, err := s.Get(deliveryID)
	if err != nil {
		return nil, err
	}
	if !s.canEditCatalog(actor, delivery) {
		return nil, ErrPermissionDenied
	}
	delivery.ValidateAllPrices(time.Now())
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	logger.Infow("delivery_prices_validated", "delivery_id", delivery.ID, "actor", actor.Email)
	return delivery, nil
}

// canEditCatalog 管理员或该配送的对接人可维护目录
func (s *DeliveryService) canEditCatalog(actor models.Person, delivery *models.Delivery) bool {
	return actor.IsStaff(s.staff) || actor.IsReferent(delivery)
}
