// Package constraint 定义排岗约束集和评估器
//
// 约束词汇表是封闭的小集合，采用标签分派而非开放插件注册，
// 每种谓词对应一个 case，便于验证和测试
package constraint

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/errors"
	"github.com/paigang/paigang/pkg/model"
)

// Predicate 约束谓词类型
type Predicate string

const (
	// 硬约束谓词
	PredicateNoDoubleBooking Predicate = "no_double_booking" // 禁止时间重叠分配
	PredicateRoleMatch       Predicate = "role_match"        // 岗位能力必须匹配

	// 软约束谓词
	PredicateCooldown        Predicate = "cooldown_between_assignments"  // 两次分配间的冷却期
	PredicateFairnessBalance Predicate = "fairness_balance"              // 分配次数均衡
	PredicateMinimizeChange  Predicate = "minimize_change_from_previous" // 贴近锚定方案，减少变动
)

// Kind 返回谓词对应的约束类别
func (p Predicate) Kind() model.ConstraintKind {
	switch p {
	case PredicateNoDoubleBooking, PredicateRoleMatch:
		return model.ConstraintHard
	default:
		return model.ConstraintSoft
	}
}

// Known 检查谓词是否在封闭词汇表内
func (p Predicate) Known() bool {
	switch p {
	case PredicateNoDoubleBooking, PredicateRoleMatch,
		PredicateCooldown, PredicateFairnessBalance, PredicateMinimizeChange:
		return true
	}
	return false
}

// Scope 约束作用域
type Scope string

const (
	ScopeOrg   Scope = "org"   // 组织级
	ScopeEvent Scope = "event" // 仅作用于单个活动
)

// Constraint 约束配置
// 约束在求解开始时载入一次，求解过程中不再变动
type Constraint struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	Predicate Predicate            `json:"predicate" db:"predicate"`
	Kind      model.ConstraintKind `json:"kind" db:"kind"`
	Weight    float64              `json:"weight" db:"weight"` // 仅软约束使用，越大违反代价越高
	Scope     Scope                `json:"scope" db:"scope"`
	EventID   *uuid.UUID           `json:"event_id,omitempty" db:"event_id"`

	// 冷却期天数（仅 cooldown 谓词使用）
	CooldownDays int `json:"cooldown_days,omitempty" db:"cooldown_days"`
}

// AppliesTo 检查约束是否作用于指定活动
func (c *Constraint) AppliesTo(eventID uuid.UUID) bool {
	if c.Scope != ScopeEvent || c.EventID == nil {
		return true
	}
	return *c.EventID == eventID
}

// Set 一次求解使用的约束集
type Set struct {
	Version     string       `json:"version"`
	Constraints []Constraint `json:"constraints"`
}

// Validate 校验约束集配置
// 配置错误须在求解开始前致命返回，不产生任何部分状态
func (s *Set) Validate() error {
	for i := range s.Constraints {
		c := &s.Constraints[i]

		if !c.Predicate.Known() {
			return errors.ConfigInvalid(fmt.Sprintf("未知谓词 '%s'", c.Predicate))
		}
		if c.Kind != c.Predicate.Kind() {
			return errors.ConfigInvalid(fmt.Sprintf(
				"谓词 '%s' 的类别应为 %s，配置为 %s", c.Predicate, c.Predicate.Kind(), c.Kind))
		}
		if c.Kind == model.ConstraintSoft && c.Weight <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("软约束 '%s' 的权重必须为正数", c.Predicate))
		}
		if c.Predicate == PredicateCooldown && c.CooldownDays <= 0 {
			return errors.ConfigInvalid("冷却期天数必须为正数")
		}
		if c.Scope == ScopeEvent && c.EventID == nil {
			return errors.ConfigInvalid(fmt.Sprintf("活动级约束 '%s' 缺少活动ID", c.Predicate))
		}
	}
	return nil
}

// Hard 返回硬约束列表（配置顺序）
func (s *Set) Hard() []Constraint {
	var result []Constraint
	for _, c := range s.Constraints {
		if c.Kind == model.ConstraintHard {
			result = append(result, c)
		}
	}
	return result
}

// Soft 返回软约束列表（配置顺序）
func (s *Set) Soft() []Constraint {
	var result []Constraint
	for _, c := range s.Constraints {
		if c.Kind == model.ConstraintSoft {
			result = append(result, c)
		}
	}
	return result
}

// HasPredicate 检查约束集是否包含某谓词
func (s *Set) HasPredicate(p Predicate) bool {
	for _, c := range s.Constraints {
		if c.Predicate == p {
			return true
		}
	}
	return false
}

// DefaultSet 返回默认约束集
// 两条硬约束 + 次数均衡，权重为经验值，可按组织调整
func DefaultSet() Set {
	return Set{
		Version: "default-v1",
		Constraints: []Constraint{
			{ID: uuid.New(), Predicate: PredicateNoDoubleBooking, Kind: model.ConstraintHard, Scope: ScopeOrg},
			{ID: uuid.New(), Predicate: PredicateRoleMatch, Kind: model.ConstraintHard, Scope: ScopeOrg},
			{ID: uuid.New(), Predicate: PredicateFairnessBalance, Kind: model.ConstraintSoft, Weight: 5, Scope: ScopeOrg},
		},
	}
}

// State 评估器可见的求解状态
// 由求解上下文实现，评估器不自行扫描整个方案
type State interface {
	// Person 获取人员记录
	Person(id uuid.UUID) *model.Person

	// AssignmentsFor 获取人员当前持有的分配
	AssignmentsFor(id uuid.UUID) []*model.Assignment

	// Count 获取人员当前分配次数
	Count(id uuid.UUID) int

	// TotalAssigned 获取已提交分配总数
	TotalAssigned() int

	// PeopleCount 获取可参与排岗的人员总数（不含停用人员）
	PeopleCount() int

	// LastEndBefore 获取人员在指定时间之前最近一次分配的结束时间
	LastEndBefore(id uuid.UUID, t time.Time) (time.Time, bool)

	// AnchorPerson 获取锚定方案中同一席位的人员
	AnchorPerson(eventID uuid.UUID, role string, ordinal int) (uuid.UUID, bool)
}
