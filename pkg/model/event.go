// Package model 定义排岗求解器的核心数据模型
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Event 待排活动
// 活动是求解的不可变输入，求解器不创建也不修改活动
type Event struct {
	BaseModel
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	Name      string    `json:"name" db:"name"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`

	// 岗位需求：岗位名 -> 所需人数（如 {"usher": 2, "musician": 1}）
	Requirements map[string]int `json:"requirements" db:"-"`
}

// TimeRange 返回活动的时间范围
func (e *Event) TimeRange() TimeRange {
	return TimeRange{Start: e.StartTime, End: e.EndTime}
}

// Overlaps 检查两个活动时间是否重叠
func (e *Event) Overlaps(other *Event) bool {
	return e.TimeRange().Overlaps(other.TimeRange())
}

// TotalSeats 返回活动的总席位数
func (e *Event) TotalSeats() int {
	total := 0
	for _, n := range e.Requirements {
		total += n
	}
	return total
}

// RoleNames 返回活动需求的岗位名（升序，保证遍历顺序确定）
func (e *Event) RoleNames() []string {
	roles := make([]string, 0, len(e.Requirements))
	for role := range e.Requirements {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
