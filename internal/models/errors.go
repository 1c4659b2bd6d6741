package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPrice 价格无法解析为数字
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidPacking 整件规格必须是正整数
	ErrInvalidPacking = errors.New("invalid packing")
	// ErrInvalidRef 商品编号不能为空
	ErrInvalidRef = errors.New("invalid ref")
	// ErrInvalidDate 日期无法解析
	ErrInvalidDate = errors.New("invalid date")
	// ErrGroupExists 同名团体已存在
	ErrGroupExists = errors.New("group already exists")
	// ErrGroupNotFound 团体不存在
	ErrGroupNotFound = errors.New("group not found")
)

// FieldError 单字段校验失败，携带字段名与原始输入
type FieldError struct {
	Field string
	Value string
	Err   error
}

// Error 实现 error 接口
func (e *FieldError) Error() string {
	return fmt.Sprintf("wrong value for field %q: %q", e.Field, e.Value)
}

// Unwrap 暴露底层错误用于 errors.Is 匹配
func (e *FieldError) Unwrap() error {
	return e.Err
}
