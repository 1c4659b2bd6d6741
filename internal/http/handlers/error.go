package handlers

import (
	"errors"

	"github.com/copanier-next/internal/http/response"
	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 业务错误到接口错误响应的映射关系
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

var commonErrorRules = []mappedHandlerError{
	{target: service.ErrDeliveryNotFound, code: response.CodeNotFound, msg: "配送不存在"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "商品不存在"},
	{target: service.ErrProducerNotFound, code: response.CodeNotFound, msg: "供应商不存在"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "权限不足"},
	{target: service.ErrDeliveryClosed, code: response.CodeBadRequest, msg: "配送已结束，不接受改动"},
	{target: service.ErrOrdersLocked, code: response.CodeBadRequest, msg: "整件校正期内订单只读"},
	{target: service.ErrReportsNotReady, code: response.CodeBadRequest, msg: "订购未截止，报表暂不可用"},
	{target: service.ErrLedgerImbalance, code: response.CodeInternal, msg: "结算账目不平，请联系管理员"},
	{target: service.ErrMissingColumns, code: response.CodeBadRequest, msg: "导入文件缺少必需列"},
	{target: service.ErrUnreadableFile, code: response.CodeBadRequest, msg: "导入文件无法解析"},
	{target: service.ErrEmailDisabled, code: response.CodeInternal, msg: "邮件服务未启用"},
	{target: service.ErrEmailNotConfigured, code: response.CodeInternal, msg: "邮件服务配置不完整"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式不正确"},
	{target: models.ErrInvalidPrice, code: response.CodeBadRequest, msg: "价格格式不正确"},
	{target: models.ErrInvalidPacking, code: response.CodeBadRequest, msg: "整件规格不正确"},
	{target: models.ErrInvalidRef, code: response.CodeBadRequest, msg: "编号或名称不正确"},
	{target: models.ErrInvalidDate, code: response.CodeBadRequest, msg: "日期不正确"},
	{target: models.ErrGroupExists, code: response.CodeConflict, msg: "团体已存在"},
	{target: models.ErrGroupNotFound, code: response.CodeNotFound, msg: "团体不存在"},
}

// respondServiceError 把业务错误翻译成响应；未识别的错误按内部错误兜底
func respondServiceError(c *gin.Context, err error) {
	for _, rule := range commonErrorRules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.code, rule.msg)
			return
		}
	}
	logger.Errorw("handler_internal_error",
		"path", c.Request.URL.Path,
		"error", err,
	)
	response.Error(c, response.CodeInternal, "内部错误")
}
