// Package handlers 团购引擎的 HTTP 接口层：参数绑定与错误映射，
// 业务规则全部在 service 层。
package handlers

import "github.com/copanier-next/internal/provider"

// Handler 接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
