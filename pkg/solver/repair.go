// Package solver 提供排岗求解器
package solver

import (
	"context"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// improvementEpsilon 换岗生效的最小改善幅度
// 浮点累加误差不应触发换岗，只接受严格降低总惩罚的交换
const improvementEpsilon = 1e-9

// repair 局部修复阶段
// 在贪心结果上做有界的首改善换岗搜索：遍历同岗位、不同活动的已填席位对，
// 找到一组双向均通过硬约束且使软约束总惩罚严格降低的交换就立即提交，
// 然后从头开始下一轮。无改善或达到迭代上限即收敛。
// 每轮迭代开头是取消检查点：取消时保留已提交的分配集并返回未完成标记
func (g *Greedy) repair(ctx context.Context, sctx *Context, slots []Slot) (iterations, swaps int, cancelled bool) {
	filled := filledSlots(sctx, slots)
	if len(filled) < 2 {
		return 0, 0, false
	}

	for iterations < g.maxRepairIterations {
		if ctx.Err() != nil {
			return iterations, swaps, true
		}
		iterations++

		base := g.replayScore(sctx, slots)
		improved := false

		for i := 0; i < len(filled) && !improved; i++ {
			for j := i + 1; j < len(filled); j++ {
				a, b := filled[i], filled[j]
				if a.Role != b.Role || a.EventID == b.EventID {
					continue
				}
				if delta, ok := g.trySwap(sctx, slots, a, b, base); ok {
					g.logger.RepairSwap(a.SlotKey.String(), b.SlotKey.String(), delta)
					swaps++
					improved = true
					break
				}
			}
		}

		if !improved {
			return iterations, swaps, false
		}
	}

	return iterations, swaps, false
}

// filledSlots 按处理顺序收集已填席位
func filledSlots(sctx *Context, slots []Slot) []Slot {
	var filled []Slot
	for _, slot := range slots {
		if _, ok := sctx.Occupant(slot.SlotKey); ok {
			filled = append(filled, slot)
		}
	}
	return filled
}

// trySwap 试算交换两个席位的人员
// 双向均须通过可用性判定和全部硬约束，且交换后的软约束总惩罚
// 须严格低于当前值，否则恢复原状
func (g *Greedy) trySwap(sctx *Context, slots []Slot, slotA, slotB Slot, base float64) (float64, bool) {
	origA, okA := sctx.Occupant(slotA.SlotKey)
	origB, okB := sctx.Occupant(slotB.SlotKey)
	if !okA || !okB {
		return 0, false
	}
	personA, personB := origA.PersonID, origB.PersonID
	if personA == personB {
		return 0, false
	}

	sctx.Unassign(slotA.SlotKey)
	sctx.Unassign(slotB.SlotKey)

	revert := func() {
		sctx.Assign(slotA, personA)
		sctx.Assign(slotB, personB)
	}

	if !g.swapFeasible(sctx, slotA, personB) || !g.swapFeasible(sctx, slotB, personA) {
		revert()
		return 0, false
	}

	sctx.Assign(slotA, personB)
	sctx.Assign(slotB, personA)

	swapped := g.replayScore(sctx, slots)
	if swapped < base-improvementEpsilon {
		return base - swapped, true
	}

	sctx.Unassign(slotA.SlotKey)
	sctx.Unassign(slotB.SlotKey)
	revert()
	return 0, false
}

// swapFeasible 检查人员换到目标席位后是否仍然合法
// 可用性判定与填充阶段同口径：屏蔽日期和在解时间重叠分配无条件生效，
// 不依赖约束集是否配置了对应硬约束
func (g *Greedy) swapFeasible(sctx *Context, slot Slot, personID uuid.UUID) bool {
	p := sctx.Person(personID)
	if p == nil || !p.IsActive() {
		return false
	}
	if _, ok := NewAvailabilityResolver(sctx).Resolve(p, slot.TimeRange()); !ok {
		return false
	}

	cand := &model.Assignment{
		EventID:   slot.EventID,
		Role:      slot.Role,
		Ordinal:   slot.Ordinal,
		PersonID:  personID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	}
	ok, _ := g.evaluator.CheckHard(sctx, cand)
	return ok
}

// replayScore 重放计算当前占用的软约束总惩罚
// 与终评使用同一重放口径，保证修复阶段的比较基准和报告得分一致
func (g *Greedy) replayScore(sctx *Context, slots []Slot) float64 {
	fresh := sctx.Fresh()
	total := 0.0
	for _, slot := range slots {
		a, ok := sctx.Occupant(slot.SlotKey)
		if !ok {
			continue
		}
		cand := *a
		total += g.evaluator.ScoreSoft(fresh, &cand)
		fresh.Assign(slot, a.PersonID)
	}
	return total
}
