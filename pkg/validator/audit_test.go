package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

func auditPerson(name string, roles ...string) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    "active",
		Roles:     roles,
	}
}

func auditSolution(assignments ...model.Assignment) *model.Solution {
	return &model.Solution{
		BaseModel:   model.NewBaseModel(),
		Assignments: assignments,
	}
}

func TestAuditor_CleanSolution(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)
	p := auditPerson("甲", "usher")

	sol := auditSolution(model.Assignment{
		EventID: uuid.New(), Role: "usher", Ordinal: 0, PersonID: p.ID,
		StartTime: base, EndTime: base.Add(2 * time.Hour),
	})

	issues := NewAuditor().Audit(sol, []*model.Person{p})
	if len(issues) != 0 {
		t.Errorf("Expected no issues for a clean solution, got %+v", issues)
	}
}

func TestAuditor_DetectsOverlap(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)
	p := auditPerson("甲", "usher")

	sol := auditSolution(
		model.Assignment{EventID: uuid.New(), Role: "usher", PersonID: p.ID,
			StartTime: base, EndTime: base.Add(2 * time.Hour)},
		model.Assignment{EventID: uuid.New(), Role: "usher", PersonID: p.ID,
			StartTime: base.Add(time.Hour), EndTime: base.Add(3 * time.Hour)},
	)

	issues := NewAuditor().Audit(sol, []*model.Person{p})

	found := false
	for _, issue := range issues {
		if issue.Type == IssueOverlap && issue.PersonID == p.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an overlap issue, got %+v", issues)
	}
}

func TestAuditor_DetectsRoleMismatchAndUnavailable(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	p := auditPerson("甲", "musician")
	p.Unavailable = []model.UnavailableRange{
		{Start: base.Add(-time.Hour), End: base.Add(4 * time.Hour), Reason: "休假"},
	}

	sol := auditSolution(model.Assignment{
		EventID: uuid.New(), Role: "usher", Ordinal: 0, PersonID: p.ID,
		StartTime: base, EndTime: base.Add(2 * time.Hour),
	})

	issues := NewAuditor().Audit(sol, []*model.Person{p})

	types := map[IssueType]bool{}
	for _, issue := range issues {
		types[issue.Type] = true
	}
	if !types[IssueRoleMismatch] {
		t.Error("Expected a role mismatch issue")
	}
	if !types[IssueUnavailable] {
		t.Error("Expected an unavailability issue")
	}
}

func TestAuditor_DetectsUnknownAssigneeAndDuplicateSlot(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)
	eventID := uuid.New()

	p := auditPerson("甲", "usher")
	stranger := uuid.New()

	sol := auditSolution(
		model.Assignment{EventID: eventID, Role: "usher", Ordinal: 0, PersonID: p.ID,
			StartTime: base, EndTime: base.Add(time.Hour)},
		model.Assignment{EventID: eventID, Role: "usher", Ordinal: 0, PersonID: stranger,
			StartTime: base, EndTime: base.Add(time.Hour)},
	)

	issues := NewAuditor().Audit(sol, []*model.Person{p})

	types := map[IssueType]bool{}
	for _, issue := range issues {
		types[issue.Type] = true
	}
	if !types[IssueDuplicateSlot] {
		t.Error("Expected a duplicate slot issue")
	}
	if !types[IssueUnknownAssignee] {
		t.Error("Expected an unknown assignee issue")
	}
}
