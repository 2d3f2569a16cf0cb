// Package constraint 定义排岗约束集和评估器
package constraint

import (
	"time"

	"github.com/paigang/paigang/pkg/model"
)

// Evaluator 约束评估器
// 两个入口：CheckHard 在提交前过滤候选人，ScoreSoft 计算候选分配的惩罚值。
// 评估是增量式的：依赖 State 维护的滚动计数和最近分配时间，
// 不会为单个候选重扫整个方案
type Evaluator struct {
	hard []Constraint
	soft []Constraint
}

// NewEvaluator 创建约束评估器
func NewEvaluator(set Set) *Evaluator {
	return &Evaluator{
		hard: set.Hard(),
		soft: set.Soft(),
	}
}

// CheckHard 检查候选分配是否满足全部硬约束
// 返回：是否满足、违反的约束（满足时为 nil）
func (e *Evaluator) CheckHard(st State, cand *model.Assignment) (bool, *Constraint) {
	for i := range e.hard {
		c := &e.hard[i]
		if !c.AppliesTo(cand.EventID) {
			continue
		}
		if !e.checkOne(c, st, cand) {
			return false, c
		}
	}
	return true, nil
}

// checkOne 按谓词分派单条硬约束检查
func (e *Evaluator) checkOne(c *Constraint, st State, cand *model.Assignment) bool {
	switch c.Predicate {
	case PredicateNoDoubleBooking:
		return !e.hasOverlap(st, cand)
	case PredicateRoleMatch:
		p := st.Person(cand.PersonID)
		return p != nil && p.HasRole(cand.Role)
	}
	return true
}

// hasOverlap 检查候选人员是否已持有时间重叠的分配
func (e *Evaluator) hasOverlap(st State, cand *model.Assignment) bool {
	for _, a := range st.AssignmentsFor(cand.PersonID) {
		// 同一席位的重评（修复阶段换岗）不与自身冲突
		if a.EventID == cand.EventID && a.Role == cand.Role && a.Ordinal == cand.Ordinal {
			continue
		}
		if a.OverlapsWith(cand) {
			return true
		}
	}
	return false
}

// ScoreSoft 计算候选分配的加权软约束惩罚总和
func (e *Evaluator) ScoreSoft(st State, cand *model.Assignment) float64 {
	total := 0.0
	for i := range e.soft {
		c := &e.soft[i]
		if !c.AppliesTo(cand.EventID) {
			continue
		}
		total += e.scoreOne(c, st, cand)
	}
	return total
}

// SoftBreakdown 计算候选分配的逐约束惩罚明细
// 用于生成最终方案的违反报告
func (e *Evaluator) SoftBreakdown(st State, cand *model.Assignment) []model.SoftViolation {
	var result []model.SoftViolation
	for i := range e.soft {
		c := &e.soft[i]
		if !c.AppliesTo(cand.EventID) {
			continue
		}
		penalty := e.scoreOne(c, st, cand)
		if penalty > 0 {
			result = append(result, model.SoftViolation{
				ConstraintID: c.ID,
				EventID:      cand.EventID,
				Role:         cand.Role,
				Ordinal:      cand.Ordinal,
				PersonID:     cand.PersonID,
				Penalty:      penalty,
			})
		}
	}
	return result
}

// scoreOne 按谓词分派单条软约束计分
func (e *Evaluator) scoreOne(c *Constraint, st State, cand *model.Assignment) float64 {
	switch c.Predicate {
	case PredicateCooldown:
		return e.scoreCooldown(c, st, cand)
	case PredicateFairnessBalance:
		return e.scoreFairness(c, st, cand)
	case PredicateMinimizeChange:
		return e.scoreChange(c, st, cand)
	}
	return 0
}

// scoreCooldown 冷却期计分
// 二值阈值：最近一次分配的结束时间距席位开始不足 N 天即记满额惩罚，
// 惩罚与权重成正比，与距离远近无关
func (e *Evaluator) scoreCooldown(c *Constraint, st State, cand *model.Assignment) float64 {
	lastEnd, ok := st.LastEndBefore(cand.PersonID, cand.StartTime)
	if !ok {
		return 0
	}
	window := time.Duration(c.CooldownDays) * 24 * time.Hour
	if cand.StartTime.Sub(lastEnd) < window {
		return c.Weight
	}
	return 0
}

// scoreFairness 次数均衡计分
// 惩罚与候选人在本次分配后超出平均次数的幅度成正比，
// 引导优先选择分配较少的人员
func (e *Evaluator) scoreFairness(c *Constraint, st State, cand *model.Assignment) float64 {
	people := st.PeopleCount()
	if people == 0 {
		return 0
	}
	newCount := float64(st.Count(cand.PersonID) + 1)
	mean := float64(st.TotalAssigned()+1) / float64(people)
	over := newCount - mean
	if over <= 0 {
		return 0
	}
	return c.Weight * over
}

// scoreChange 变动最小化计分
// 仅在提供锚定方案时生效：候选人与锚定方案同席位人员不同即记惩罚
func (e *Evaluator) scoreChange(c *Constraint, st State, cand *model.Assignment) float64 {
	anchor, ok := st.AnchorPerson(cand.EventID, cand.Role, cand.Ordinal)
	if !ok {
		return 0
	}
	if anchor != cand.PersonID {
		return c.Weight
	}
	return 0
}
