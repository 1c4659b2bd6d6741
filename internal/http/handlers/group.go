package handlers

import (
	"github.com/copanier-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListGroups 全部团体
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.GroupService.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, groups)
}

// groupRequest 团体登记
type groupRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateGroup 登记新团体，创建者自动入团
func (h *Handler) CreateGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	group, err := h.GroupService.Create(actor, req.ID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, group)
}

// JoinGroup 加入团体
func (h *Handler) JoinGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	group, err := h.GroupService.Join(actor, c.Param("group"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, group)
}

// LeaveGroup 退出所属团体
func (h *Handler) LeaveGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	if err := h.GroupService.Leave(actor); err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "已退出", nil)
}
