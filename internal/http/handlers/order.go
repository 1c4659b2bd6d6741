package handlers

import (
	"github.com/copanier-next/internal/http/response"
	"github.com/copanier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrder 提交整份订单。管理员可带 buyer 查询参数替他人改单。
func (h *Handler) PlaceOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var input service.OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	buyer := actor
	if buyerID := c.Query("buyer"); buyerID != "" && buyerID != actor.ID() {
		resolved, err := h.GroupService.Resolve(buyerID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		buyer = resolved
	}
	order, err := h.OrderService.PlaceOrder(actor, c.Param("id"), buyer, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order == nil {
		response.SuccessWithMsg(c, "订单已清空", nil)
		return
	}
	response.Success(c, order)
}

// GetOrder 查询某买家的订单
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.OrderService.GetOrder(resolveDeliveryID(c), c.Param("buyer"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// adjustRequest 整件校正：各买家对某商品的带符号修正量
type adjustRequest struct {
	Adjustments map[string]int `json:"adjustments"`
}

// AdjustProduct 管理员录入整件校正
func (h *Handler) AdjustProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	delivery, err := h.OrderService.AdjustProduct(actor, c.Param("id"), c.Param("ref"), req.Adjustments)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// paidRequest 付款状态标记
type paidRequest struct {
	Paid bool `json:"paid"`
}

// SetOrderPaid 管理员标记订单付款状态
func (h *Handler) SetOrderPaid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var req paidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	if err := h.OrderService.SetPaid(actor, c.Param("id"), c.Param("buyer"), req.Paid); err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "已更新", nil)
}

// GetSettlement 结算方案：欠款方、应收方与最少转账
func (h *Handler) GetSettlement(c *gin.Context) {
	settlement, err := h.SettlementService.ComputePayments(resolveDeliveryID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settlement)
}
