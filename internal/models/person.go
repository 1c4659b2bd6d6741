package models

import "strings"

// Person 操作者身份；所有需要鉴权的操作都显式传入，不依赖任何全局会话状态
type Person struct {
	Email     string `yaml:"email" json:"email"`
	FirstName string `yaml:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string `yaml:"last_name,omitempty" json:"last_name,omitempty"`
	GroupID   string `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	GroupName string `yaml:"group_name,omitempty" json:"group_name,omitempty"`
}

// ID 订单归属键：优先团体 id，个人则退回邮箱
func (p Person) ID() string {
	if p.GroupID != "" {
		return p.GroupID
	}
	return p.Email
}

// Name 展示名：优先团体名，个人则退回邮箱
func (p Person) Name() string {
	if p.GroupName != "" {
		return p.GroupName
	}
	return p.Email
}

// IsStaff 是否管理员；名单为空时对所有人放行
func (p Person) IsStaff(staff []string) bool {
	if len(staff) == 0 {
		return true
	}
	for _, email := range staff {
		if strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(p.Email)) {
			return true
		}
	}
	return false
}

// IsReferent 是否该配送的对接人（含配送负责人）
func (p Person) IsReferent(delivery *Delivery) bool {
	if p.Email == delivery.Contact {
		return true
	}
	for _, referent := range delivery.GetReferents() {
		if referent == p.Email {
			return true
		}
	}
	return false
}
