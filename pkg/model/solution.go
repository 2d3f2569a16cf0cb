// Package model 定义排岗求解器的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// SolveMode 求解模式
type SolveMode string

const (
	ModeFresh     SolveMode = "fresh"     // 全新求解，忽略历史方案
	ModeStabilize SolveMode = "stabilize" // 稳定求解，尽量贴近锚定方案
)

// Valid 检查求解模式是否合法
func (m SolveMode) Valid() bool {
	return m == ModeFresh || m == ModeStabilize
}

// SolutionStatus 方案状态
type SolutionStatus string

const (
	SolutionDraft   SolutionStatus = "draft"   // 草稿
	SolutionApplied SolutionStatus = "applied" // 已生效
)

// Assignment 排岗分配
// (活动, 岗位, 序号, 人员) 四元组是求解器的原子输出单位
type Assignment struct {
	EventID  uuid.UUID `json:"event_id" db:"event_id"`
	Role     string    `json:"role" db:"role"`
	Ordinal  int       `json:"ordinal" db:"ordinal"`
	PersonID uuid.UUID `json:"person_id" db:"person_id"`

	// 冗余活动时间，重叠判断无需回查活动表
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
}

// TimeRange 返回分配对应活动的时间范围
func (a *Assignment) TimeRange() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

// OverlapsWith 检查两个分配的活动时间是否重叠
func (a *Assignment) OverlapsWith(other *Assignment) bool {
	return a.TimeRange().Overlaps(other.TimeRange())
}

// Metrics 方案质量指标
type Metrics struct {
	HardViolations int     `json:"hard_violations"` // 硬约束违反数（可行解为0）
	SoftScore      float64 `json:"soft_score"`      // 加权软约束惩罚总和
	HealthScore    float64 `json:"health_score"`    // 健康度 0-100
	FairnessStdDev float64 `json:"fairness_std_dev"`

	// 每人分配次数（含零分配人员）
	AssignmentCounts map[string]int `json:"assignment_counts"`
}

// UnfilledSlot 未填补席位
type UnfilledSlot struct {
	EventID uuid.UUID `json:"event_id"`
	Role    string    `json:"role"`
	Ordinal int       `json:"ordinal"`
	Reason  string    `json:"reason"`
}

// SoftViolation 软约束违反条目
type SoftViolation struct {
	ConstraintID uuid.UUID `json:"constraint_id"`
	EventID      uuid.UUID `json:"event_id"`
	Role         string    `json:"role"`
	Ordinal      int       `json:"ordinal"`
	PersonID     uuid.UUID `json:"person_id"`
	Penalty      float64   `json:"penalty"`
}

// ViolationReport 结构化违反报告
// 供管理端解释不完美方案
type ViolationReport struct {
	Unfilled []UnfilledSlot  `json:"unfilled"`
	Soft     []SoftViolation `json:"soft"`
}

// Solution 排岗方案
// 方案一经创建即不可变，修正须生成新方案
type Solution struct {
	BaseModel
	OrgID             uuid.UUID       `json:"org_id" db:"org_id"`
	StartDate         string          `json:"start_date" db:"start_date"`
	EndDate           string          `json:"end_date" db:"end_date"`
	Mode              SolveMode       `json:"mode" db:"mode"`
	AnchorID          *uuid.UUID      `json:"anchor_id,omitempty" db:"anchor_id"`
	ConstraintVersion string          `json:"constraint_version" db:"constraint_version"`
	Status            SolutionStatus  `json:"status" db:"status"`
	Incomplete        bool            `json:"incomplete" db:"incomplete"` // 求解被取消时为 true
	Assignments       []Assignment    `json:"assignments" db:"-"`
	Metrics           Metrics         `json:"metrics" db:"-"`
	Violations        ViolationReport `json:"violations" db:"-"`
}

// IsApplied 检查方案是否已生效
func (s *Solution) IsApplied() bool {
	return s.Status == SolutionApplied
}

// AssignmentFor 查找指定席位的分配
func (s *Solution) AssignmentFor(eventID uuid.UUID, role string, ordinal int) *Assignment {
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if a.EventID == eventID && a.Role == role && a.Ordinal == ordinal {
			return a
		}
	}
	return nil
}
