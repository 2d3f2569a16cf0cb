// Package solver 提供排岗求解器
package solver

import (
	"github.com/paigang/paigang/pkg/model"
)

// AvailabilityResolver 可用性判定器
// 纯函数：只依赖当前求解状态和人员的屏蔽日期数据，无副作用
type AvailabilityResolver struct {
	ctx *Context
}

// NewAvailabilityResolver 创建可用性判定器
func NewAvailabilityResolver(ctx *Context) *AvailabilityResolver {
	return &AvailabilityResolver{ctx: ctx}
}

// Resolve 判定人员在时间范围内是否可用
// 返回：屏蔽原因（可用时为空）、是否可用
// 屏蔽条件：任一不可用日期范围与查询范围重叠，
// 或本次求解中已持有时间重叠的分配
func (r *AvailabilityResolver) Resolve(p *model.Person, tr model.TimeRange) (string, bool) {
	if reason, blocked := p.BlockedDuring(tr); blocked {
		return reason, false
	}

	for _, a := range r.ctx.AssignmentsFor(p.ID) {
		if a.TimeRange().Overlaps(tr) {
			return "已有时间重叠的分配", false
		}
	}

	return "", true
}
