// Package stats 提供排岗结果统计分析功能
package stats

import (
	"math"

	"github.com/paigang/paigang/pkg/model"
)

// Analyzer 指标分析器
// 健康分各项系数是经验值，可按部署调整，但同一部署内必须保持稳定，
// 否则历史方案的健康分不可比
type Analyzer struct {
	hardPenalty float64 // 每个硬违反扣分
	softRange   float64 // 软约束项总分值区间
	softK       float64 // 软惩罚饱和常数：soft/(soft+K)
}

// NewAnalyzer 创建指标分析器（默认系数）
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		hardPenalty: 20.0,
		softRange:   30.0,
		softK:       50.0,
	}
}

// Compute 计算方案指标
// 硬违反数为未填补席位数：已提交的分配必然通过全部硬约束，
// 方案中不存在"带硬违反的分配"这种状态
func (a *Analyzer) Compute(people []*model.Person, assignments []model.Assignment, unfilled int, softScore float64) model.Metrics {
	// 次数均衡只覆盖可参与排岗的人员：停用人员不进候选池，
	// 把他们计入零分配会稀释标准差
	counts := make(map[string]int, len(people))
	for _, p := range people {
		if p.IsActive() {
			counts[p.ID.String()] = 0
		}
	}
	for i := range assignments {
		counts[assignments[i].PersonID.String()]++
	}

	return model.Metrics{
		HardViolations:   unfilled,
		SoftScore:        softScore,
		HealthScore:      a.healthScore(unfilled, softScore),
		FairnessStdDev:   a.fairnessStdDev(counts),
		AssignmentCounts: counts,
	}
}

// healthScore 计算健康分
// health = clamp(100 - hardPenalty*hard - softRange*(soft/(soft+K)), 0, 100)
// 饱和式软惩罚保证软约束项最多占 softRange 分，
// 且软惩罚单调增加时健康分单调不增
func (a *Analyzer) healthScore(hard int, soft float64) float64 {
	score := 100.0 - a.hardPenalty*float64(hard)
	if soft > 0 {
		score -= a.softRange * (soft / (soft + a.softK))
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// fairnessStdDev 计算分配次数的总体标准差
// 零分配人员参与计算：他们被排除会让"少数人包揽全部席位"
// 看起来反而更公平
func (a *Analyzer) fairnessStdDev(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	mean := float64(total) / float64(len(counts))

	sumSq := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(counts)))
}
