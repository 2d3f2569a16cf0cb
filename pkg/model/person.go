// Package model 定义排岗求解器的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Person 人员
// 求解器只读引用人员记录，从不修改
type Person struct {
	BaseModel
	OrgID  uuid.UUID `json:"org_id" db:"org_id"`
	Name   string    `json:"name" db:"name"`
	Code   string    `json:"code" db:"code"`
	Email  string    `json:"email,omitempty" db:"email"`
	Status string    `json:"status" db:"status"` // active/inactive

	// 岗位能力（如 "usher"、"musician"）
	Roles []string `json:"roles" db:"roles"`

	// 不可用日期范围（按开始时间升序）
	Unavailable []UnavailableRange `json:"unavailable,omitempty" db:"-"`
}

// UnavailableRange 不可用时间范围
type UnavailableRange struct {
	Start  time.Time `json:"start" db:"start_at"`
	End    time.Time `json:"end" db:"end_at"`
	Reason string    `json:"reason,omitempty" db:"reason"`
}

// Overlaps 检查不可用范围是否与时间范围重叠
func (u UnavailableRange) Overlaps(tr TimeRange) bool {
	return u.Start.Before(tr.End) && tr.Start.Before(u.End)
}

// IsActive 检查人员是否在册
func (p *Person) IsActive() bool {
	return p.Status == "active"
}

// HasRole 检查人员是否具备某岗位能力
func (p *Person) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BlockedDuring 检查人员在时间范围内是否被屏蔽
// 返回：屏蔽原因、是否屏蔽
func (p *Person) BlockedDuring(tr TimeRange) (string, bool) {
	for _, u := range p.Unavailable {
		if u.Overlaps(tr) {
			reason := u.Reason
			if reason == "" {
				reason = "不可用"
			}
			return reason, true
		}
	}
	return "", false
}
