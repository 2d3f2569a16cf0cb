// Package solver 提供排岗求解器
package solver

import (
	"sort"

	"github.com/paigang/paigang/pkg/model"
)

// Matcher 候选人匹配器
// 为每个席位产出候选人池：具备岗位能力且通过可用性判定的人员
type Matcher struct {
	ctx      *Context
	resolver *AvailabilityResolver
}

// NewMatcher 创建候选人匹配器
func NewMatcher(ctx *Context) *Matcher {
	return &Matcher{
		ctx:      ctx,
		resolver: NewAvailabilityResolver(ctx),
	}
}

// Candidates 获取席位的候选人列表
// 排序键：当前分配次数升序（分配少者优先），再按人员ID升序保证确定性。
// 空列表是合法结果（席位无法填补），以原因字符串报告，不作为错误
func (m *Matcher) Candidates(slot Slot) ([]*model.Person, string) {
	var candidates []*model.Person
	holders := 0

	for _, p := range m.ctx.People {
		if !p.IsActive() {
			continue
		}
		if !p.HasRole(slot.Role) {
			continue
		}
		holders++

		if _, ok := m.resolver.Resolve(p, slot.TimeRange()); !ok {
			continue
		}
		candidates = append(candidates, p)
	}

	if len(candidates) == 0 {
		if holders == 0 {
			return nil, "无人具备岗位能力 '" + slot.Role + "'"
		}
		return nil, "具备岗位能力的人员均不可用"
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := m.ctx.Count(candidates[i].ID), m.ctx.Count(candidates[j].ID)
		if ci != cj {
			return ci < cj
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	return candidates, ""
}
