package handlers

import (
	"github.com/copanier-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// magicLinkRequest 魔法链接申请
type magicLinkRequest struct {
	Email string `json:"email"`
}

// RequestMagicLink 发送登录魔法链接
func (h *Handler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数格式不正确")
		return
	}
	if _, err := h.AuthService.RequestMagicLink(req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "登录链接已发送", nil)
}

// Login 用魔法链接令牌换取身份
func (h *Handler) Login(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "缺少令牌")
		return
	}
	email, err := h.AuthService.VerifyToken(token)
	if err != nil {
		response.Unauthorized(c, "令牌无效或已过期")
		return
	}
	person, err := h.GroupService.Resolve(email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":  token,
		"person": person,
		"staff":  person.IsStaff(h.Config.Staff),
	})
}

// Me 当前登录身份
func (h *Handler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	response.Success(c, gin.H{
		"person": actor,
		"staff":  actor.IsStaff(h.Config.Staff),
	})
}
