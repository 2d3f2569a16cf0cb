// Package validator 提供排岗方案审计功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// IssueType 问题类型
type IssueType string

const (
	IssueOverlap         IssueType = "overlap"          // 时间重叠
	IssueRoleMismatch    IssueType = "role_mismatch"    // 岗位能力不匹配
	IssueUnavailable     IssueType = "unavailable"      // 人员不可用
	IssueUnknownAssignee IssueType = "unknown_assignee" // 人员不在名册内
	IssueDuplicateSlot   IssueType = "duplicate_slot"   // 席位重复占用
)

// Issue 审计问题
type Issue struct {
	Type     IssueType `json:"type"`
	PersonID uuid.UUID `json:"person_id,omitempty"`
	Slot     string    `json:"slot"`
	Message  string    `json:"message"`
}

// Auditor 方案审计器
// 求解器产出方案后的独立复核：不信任求解过程，
// 直接按方案数据逐条重查硬性规则。审计发现问题意味着求解器有缺陷
type Auditor struct {
	checkAvailability bool
}

// NewAuditor 创建方案审计器
func NewAuditor() *Auditor {
	return &Auditor{checkAvailability: true}
}

// Audit 审计方案的全部分配
func (a *Auditor) Audit(sol *model.Solution, people []*model.Person) []Issue {
	var issues []Issue

	personMap := make(map[uuid.UUID]*model.Person, len(people))
	for _, p := range people {
		personMap[p.ID] = p
	}

	seen := make(map[string]bool, len(sol.Assignments))
	byPerson := make(map[uuid.UUID][]*model.Assignment)

	for i := range sol.Assignments {
		asg := &sol.Assignments[i]
		slot := slotLabel(asg)

		if seen[slot] {
			issues = append(issues, Issue{
				Type:    IssueDuplicateSlot,
				Slot:    slot,
				Message: fmt.Sprintf("席位 %s 被重复占用", slot),
			})
		}
		seen[slot] = true

		p := personMap[asg.PersonID]
		if p == nil {
			issues = append(issues, Issue{
				Type:     IssueUnknownAssignee,
				PersonID: asg.PersonID,
				Slot:     slot,
				Message:  fmt.Sprintf("人员 %s 不在名册内", asg.PersonID),
			})
			continue
		}

		if !p.HasRole(asg.Role) {
			issues = append(issues, Issue{
				Type:     IssueRoleMismatch,
				PersonID: asg.PersonID,
				Slot:     slot,
				Message:  fmt.Sprintf("人员 %s 不具备岗位能力 '%s'", p.Name, asg.Role),
			})
		}

		if a.checkAvailability {
			if reason, blocked := p.BlockedDuring(asg.TimeRange()); blocked {
				issues = append(issues, Issue{
					Type:     IssueUnavailable,
					PersonID: asg.PersonID,
					Slot:     slot,
					Message:  fmt.Sprintf("人员 %s 在席位时间内不可用: %s", p.Name, reason),
				})
			}
		}

		byPerson[asg.PersonID] = append(byPerson[asg.PersonID], asg)
	}

	issues = append(issues, a.detectOverlaps(byPerson, personMap)...)
	return issues
}

// detectOverlaps 检测同一人员的时间重叠分配
func (a *Auditor) detectOverlaps(byPerson map[uuid.UUID][]*model.Assignment, personMap map[uuid.UUID]*model.Person) []Issue {
	var issues []Issue

	ids := make([]uuid.UUID, 0, len(byPerson))
	for id := range byPerson {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		list := byPerson[id]
		sort.Slice(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })

		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if !list[j].StartTime.Before(list[i].EndTime) {
					break
				}
				name := id.String()
				if p := personMap[id]; p != nil {
					name = p.Name
				}
				issues = append(issues, Issue{
					Type:     IssueOverlap,
					PersonID: id,
					Slot:     slotLabel(list[i]),
					Message:  fmt.Sprintf("人员 %s 持有时间重叠的分配: %s 与 %s", name, slotLabel(list[i]), slotLabel(list[j])),
				})
			}
		}
	}
	return issues
}

// slotLabel 席位标签
func slotLabel(a *model.Assignment) string {
	return fmt.Sprintf("%s/%s/%d", a.EventID, a.Role, a.Ordinal)
}
