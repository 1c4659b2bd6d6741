// Package service 实现团购引擎的用例层：配送生命周期、下单与整件校正、
// 结算、目录导入、报表和通知邮件。鉴权按显式传入的操作者身份判定。
package service

import "errors"

var (
	// ErrDeliveryNotFound 配送不存在
	ErrDeliveryNotFound = errors.New("delivery not found")
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrProducerNotFound 供应商不存在
	ErrProducerNotFound = errors.New("producer not found")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrPermissionDenied 权限不足
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDeliveryClosed 配送已结束或归档，不再接受改动
	ErrDeliveryClosed = errors.New("delivery closed")
	// ErrOrdersLocked 整件校正期内普通买家只读
	ErrOrdersLocked = errors.New("orders locked during adjustment")
	// ErrAdjustmentNotNeeded 当前不存在待校正的商品
	ErrAdjustmentNotNeeded = errors.New("no adjustment needed")
	// ErrReportsNotReady 订购未截止或仍待校正，报表不可用
	ErrReportsNotReady = errors.New("reports not ready")
	// ErrLedgerImbalance 结算账目之和不为零
	ErrLedgerImbalance = errors.New("settlement ledger does not balance")
	// ErrMissingColumns 导入文件缺少必需列
	ErrMissingColumns = errors.New("missing required columns")
	// ErrUnreadableFile 导入文件无法解析
	ErrUnreadableFile = errors.New("unreadable file")
	// ErrEmailDisabled 邮件服务未启用
	ErrEmailDisabled = errors.New("email service disabled")
	// ErrEmailNotConfigured 邮件服务配置不完整
	ErrEmailNotConfigured = errors.New("email service not configured")
	// ErrInvalidEmail 邮箱格式非法
	ErrInvalidEmail = errors.New("invalid email address")
)
