package handlers

import (
	"strings"

	"github.com/copanier-next/internal/http/response"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// deliveryView 配送视图：原始记录加上推导出来的状态与汇总
type deliveryView struct {
	*models.Delivery
	Status  string               `json:"status"`
	Total   models.Money         `json:"total"`
	Dates   models.DeliveryDates `json:"dates"`
	Wanted  map[string]int       `json:"wanted"`
	Missing map[string]int       `json:"missing"`
}

func newDeliveryView(d *models.Delivery) deliveryView {
	wanted := make(map[string]int, len(d.Products))
	missing := make(map[string]int, len(d.Products))
	for _, product := range d.Products {
		wanted[product.Ref] = d.ProductWanted(product)
		missing[product.Ref] = d.ProductMissing(product)
	}
	return deliveryView{
		Delivery: d,
		Status:   d.Status().String(),
		Total:    d.Total(),
		Dates:    d.Dates(),
		Wanted:   wanted,
		Missing:  missing,
	}
}

// resolveDeliveryID 支持 archived=1 查询参数定位归档记录
func resolveDeliveryID(c *gin.Context) string {
	id := c.Param("id")
	if c.Query("archived") == "1" && !strings.HasPrefix(id, models.ArchivePrefix) {
		id = models.ArchivePrefix + id
	}
	return id
}

// ListDeliveries 配送列表；scope 取 incoming / former / archived，默认 incoming
func (h *Handler) ListDeliveries(c *gin.Context) {
	var (
		deliveries []*models.Delivery
		err        error
	)
	switch c.DefaultQuery("scope", "incoming") {
	case "former":
		deliveries, err = h.DeliveryService.Former()
	case "archived":
		deliveries, err = h.DeliveryService.Archived()
	default:
		deliveries, err = h.DeliveryService.Incoming()
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]deliveryView, 0, len(deliveries))
	for _, d := range deliveries {
		views = append(views, newDeliveryView(d))
	}
	response.Success(c, views)
}

// GetDelivery 配送详情
func (h *Handler) GetDelivery(c *gin.Context) {
	delivery, err := h.DeliveryService.Get(resolveDeliveryID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// CreateDelivery 创建配送
func (h *Handler) CreateDelivery(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var input service.DeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.DeliveryService.Create(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// UpdateDelivery 修改配送基础信息
func (h *Handler) UpdateDelivery(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var input service.DeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.DeliveryService.Update(actor, c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// ArchiveDelivery 归档配送
func (h *Handler) ArchiveDelivery(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	newID, err := h.DeliveryService.Archive(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": newID})
}

// UnarchiveDelivery 取消归档
func (h *Handler) UnarchiveDelivery(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	id := c.Param("id")
	if !strings.HasPrefix(id, models.ArchivePrefix) {
		id = models.ArchivePrefix + id
	}
	newID, err := h.DeliveryService.Unarchive(actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": newID})
}

// handOverRequest 交接请求：新配送的基础信息加对接人替换表
type handOverRequest struct {
	service.DeliveryInput
	Referents map[string]service.ReferentUpdate `json:"referents"`
	EmailBody string                            `json:"email_body"`
}

// HandOverDelivery 把目录移交给新一场配送
func (h *Handler) HandOverDelivery(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var req handOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	next, err := h.DeliveryService.HandOver(actor, c.Param("id"), req.DeliveryInput, req.Referents, req.EmailBody)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(next))
}

// ValidatePrices 对接人确认报价有效
func (h *Handler) ValidatePrices(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	delivery, err := h.DeliveryService.ValidatePrices(actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// UpsertProduct 新增或更新商品
func (h *Handler) UpsertProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.DeliveryService.UpsertProduct(actor, c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	delivery, err := h.DeliveryService.DeleteProduct(actor, c.Param("id"), c.Param("ref"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// UpsertProducer 新增或更新供应商
func (h *Handler) UpsertProducer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var producer models.Producer
	if err := c.ShouldBindJSON(&producer); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.DeliveryService.UpsertProducer(actor, c.Param("id"), producer)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// DeleteProducer 删除供应商及其商品
func (h *Handler) DeleteProducer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	delivery, err := h.DeliveryService.DeleteProducer(actor, c.Param("id"), c.Param("producer"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// shippingRequest 运费设置
type shippingRequest struct {
	Fee models.Money `json:"fee"`
}

// SetShipping 设置供应商整笔运费
func (h *Handler) SetShipping(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.DeliveryService.SetShipping(actor, c.Param("id"), c.Param("producer"), req.Fee)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}
