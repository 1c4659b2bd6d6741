package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

// Money 统一金额类型；计算过程保留全精度，只在对外输出时舍入到 2 位小数
type Money struct {
	decimal.Decimal
}

// NewMoney 从 decimal 创建金额
func NewMoney(amount decimal.Decimal) Money {
	return Money{Decimal: amount}
}

// NewMoneyFromFloat 从浮点数创建金额
func NewMoneyFromFloat(amount float64) Money {
	return Money{Decimal: decimal.NewFromFloat(amount)}
}

// ParsePrice 解析价格字符串：容忍货币符号、空白以及逗号小数点
func ParsePrice(value string) (Money, error) {
	cleaned := strings.NewReplacer(
		"€", "",
		"$", "",
		"¥", "",
		" ", "",
		" ", "",
	).Replace(value)
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", ".")
	if cleaned == "" {
		return Money{}, &FieldError{Field: "price", Value: value, Err: ErrInvalidPrice}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, &FieldError{Field: "price", Value: value, Err: ErrInvalidPrice}
	}
	return Money{Decimal: d}, nil
}

// Rounded 返回 2 位小数（四舍五入）的金额，用于对外报表
func (m Money) Rounded() Money {
	return Money{Decimal: m.Decimal.Round(2)}
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.Round(2).StringFixed(2))
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	m.Decimal = decimal.NewFromFloat(f)
	return nil
}

// MarshalYAML 落盘时写成数字字符串
func (m Money) MarshalYAML() (interface{}, error) {
	return m.Decimal.String(), nil
}

// UnmarshalYAML 读取金额（兼容字符串和数字标量）
func (m *Money) UnmarshalYAML(b []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := ParsePrice(v)
		if err != nil {
			return err
		}
		*m = parsed
	case int:
		m.Decimal = decimal.NewFromInt(int64(v))
	case int64:
		m.Decimal = decimal.NewFromInt(v)
	case uint64:
		m.Decimal = decimal.NewFromUint64(v)
	case float64:
		m.Decimal = decimal.NewFromFloat(v)
	case nil:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("unsupported money value: %v", raw)
	}
	return nil
}
