// Package solver 提供排岗求解器
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/paigang/paigang/pkg/logger"
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver/constraint"
)

// DefaultMaxRepairIterations 修复阶段默认迭代上限
// 防止大名册上的修复时间无界增长
const DefaultMaxRepairIterations = 200

// Result 求解结果
type Result struct {
	Assignments []model.Assignment    `json:"assignments"` // 按席位处理顺序
	Unfilled    []model.UnfilledSlot  `json:"unfilled,omitempty"`
	Soft        []model.SoftViolation `json:"soft,omitempty"`
	SoftScore   float64               `json:"soft_score"`
	Statistics  *Statistics           `json:"statistics"`
	Incomplete  bool                  `json:"incomplete"` // 求解被取消，修复未完成
	Duration    time.Duration         `json:"duration"`
}

// Statistics 求解统计
type Statistics struct {
	TotalSlots       int     `json:"total_slots"`
	FilledSlots      int     `json:"filled_slots"`
	FillRate         float64 `json:"fill_rate"`
	RepairIterations int     `json:"repair_iterations"`
	RepairSwaps      int     `json:"repair_swaps"`
}

// Greedy 确定性贪心求解器（带局部修复）
// 相同输入必然产出逐位一致的分配集：不存在任何随机打散，
// 全部并列通过固定处理顺序和标识符比较消解
type Greedy struct {
	evaluator           *constraint.Evaluator
	logger              *logger.SolverLogger
	maxRepairIterations int
}

// NewGreedy 创建贪心求解器
func NewGreedy(set constraint.Set) *Greedy {
	return &Greedy{
		evaluator:           constraint.NewEvaluator(set),
		logger:              logger.NewSolverLogger(),
		maxRepairIterations: DefaultMaxRepairIterations,
	}
}

// SetMaxRepairIterations 设置修复阶段迭代上限
func (g *Greedy) SetMaxRepairIterations(max int) {
	g.maxRepairIterations = max
}

// Solve 执行求解
// 贪心填充阶段总是完整执行，取消只在修复阶段生效：
// 取消时已提交的分配集仍是合法（未修复）的部分方案
func (g *Greedy) Solve(ctx context.Context, sctx *Context) *Result {
	startTime := time.Now()

	slots := BuildSlots(sctx.Events)
	g.logger.StartSolve(sctx.OrgID.String(), len(sctx.People), len(sctx.Events), len(slots))

	result := &Result{
		Statistics: &Statistics{TotalSlots: len(slots)},
	}

	matcher := NewMatcher(sctx)

	// 贪心填充：按固定席位顺序逐个选人
	for _, slot := range slots {
		candidates, emptyReason := matcher.Candidates(slot)
		if len(candidates) == 0 {
			g.recordUnfilled(result, slot, emptyReason)
			continue
		}

		best, reason := g.pickBest(sctx, slot, candidates)
		if best == nil {
			g.recordUnfilled(result, slot, reason)
			continue
		}

		sctx.Assign(slot, best.ID)
	}

	// 局部修复：有界换岗搜索，取消检查点
	iters, swaps, cancelled := g.repair(ctx, sctx, slots)
	result.Statistics.RepairIterations = iters
	result.Statistics.RepairSwaps = swaps
	result.Incomplete = cancelled

	// 终评重放：按席位顺序重算软约束得分和明细
	g.rescore(sctx, slots, result)

	result.Statistics.FilledSlots = len(result.Assignments)
	if result.Statistics.TotalSlots > 0 {
		result.Statistics.FillRate = float64(result.Statistics.FilledSlots) / float64(result.Statistics.TotalSlots) * 100
	}
	result.Duration = time.Since(startTime)

	return result
}

// pickBest 在硬约束过滤后选出软约束惩罚最小的候选人
// 并列保持匹配器排序（次数升序、ID升序）中靠前者
func (g *Greedy) pickBest(sctx *Context, slot Slot, candidates []*model.Person) (*model.Person, string) {
	var best *model.Person
	var bestScore float64
	var lastRejection string

	for _, p := range candidates {
		cand := &model.Assignment{
			EventID:   slot.EventID,
			Role:      slot.Role,
			Ordinal:   slot.Ordinal,
			PersonID:  p.ID,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}

		ok, violated := g.evaluator.CheckHard(sctx, cand)
		if !ok {
			lastRejection = fmt.Sprintf("违反硬约束 '%s'", violated.Predicate)
			continue
		}

		score := g.evaluator.ScoreSoft(sctx, cand)
		if best == nil || score < bestScore {
			best = p
			bestScore = score
		}
	}

	if best == nil {
		return nil, lastRejection
	}
	return best, ""
}

// recordUnfilled 记录未填补席位
// 不可行输入从不中止求解，继续填充后续席位以最大化填补数
func (g *Greedy) recordUnfilled(result *Result, slot Slot, reason string) {
	g.logger.UnfilledSlot(slot.SlotKey.String(), reason)
	result.Unfilled = append(result.Unfilled, model.UnfilledSlot{
		EventID: slot.EventID,
		Role:    slot.Role,
		Ordinal: slot.Ordinal,
		Reason:  reason,
	})
}

// rescore 终评重放
// 在空白上下文中按席位顺序重新提交分配并累计软约束惩罚，
// 保证报告的得分和明细与修复后的最终占用一致且确定
func (g *Greedy) rescore(sctx *Context, slots []Slot, result *Result) {
	fresh := sctx.Fresh()
	total := 0.0

	for _, slot := range slots {
		a, ok := sctx.Occupant(slot.SlotKey)
		if !ok {
			continue
		}

		cand := *a
		entries := g.evaluator.SoftBreakdown(fresh, &cand)
		for _, entry := range entries {
			total += entry.Penalty
		}
		result.Soft = append(result.Soft, entries...)

		fresh.Assign(slot, a.PersonID)
		result.Assignments = append(result.Assignments, *a)
	}

	result.SoftScore = total
}
