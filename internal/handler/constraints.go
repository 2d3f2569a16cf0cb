// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver/constraint"
)

// PredicateInfo 谓词说明
type PredicateInfo struct {
	Predicate   constraint.Predicate `json:"predicate"`
	Kind        model.ConstraintKind `json:"kind"`
	Description string               `json:"description"`
	Params      []string             `json:"params,omitempty"`
}

// ConstraintLibrary 返回封闭谓词词汇表
// 管理端据此渲染约束配置界面，词汇表外的谓词一律拒绝
func ConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	library := []PredicateInfo{
		{
			Predicate:   constraint.PredicateNoDoubleBooking,
			Kind:        model.ConstraintHard,
			Description: "同一人员不得持有时间重叠的分配",
		},
		{
			Predicate:   constraint.PredicateRoleMatch,
			Kind:        model.ConstraintHard,
			Description: "人员必须具备席位要求的岗位能力",
		},
		{
			Predicate:   constraint.PredicateCooldown,
			Kind:        model.ConstraintSoft,
			Description: "两次分配之间至少间隔N天，不足记惩罚",
			Params:      []string{"weight", "cooldown_days"},
		},
		{
			Predicate:   constraint.PredicateFairnessBalance,
			Kind:        model.ConstraintSoft,
			Description: "分配次数尽量均衡，超出平均次数记惩罚",
			Params:      []string{"weight"},
		},
		{
			Predicate:   constraint.PredicateMinimizeChange,
			Kind:        model.ConstraintSoft,
			Description: "稳定模式下尽量贴近锚定方案，换人记惩罚",
			Params:      []string{"weight"},
		},
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"library": library,
		"default": constraint.DefaultSet(),
	})
}
