package solver

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver/constraint"
)

var testOrgID = uuid.New()

func newTestPerson(name string, roles ...string) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		OrgID:     testOrgID,
		Name:      name,
		Status:    "active",
		Roles:     roles,
	}
}

func newTestEvent(name string, start time.Time, duration time.Duration, requirements map[string]int) *model.Event {
	return &model.Event{
		BaseModel:    model.NewBaseModel(),
		OrgID:        testOrgID,
		Name:         name,
		StartTime:    start,
		EndTime:      start.Add(duration),
		Requirements: requirements,
	}
}

// hardOnlySet 仅含两条硬约束的约束集
func hardOnlySet() constraint.Set {
	return constraint.Set{
		Version: "test-hard",
		Constraints: []constraint.Constraint{
			{ID: uuid.New(), Predicate: constraint.PredicateNoDoubleBooking, Kind: model.ConstraintHard, Scope: constraint.ScopeOrg},
			{ID: uuid.New(), Predicate: constraint.PredicateRoleMatch, Kind: model.ConstraintHard, Scope: constraint.ScopeOrg},
		},
	}
}

func withSoft(set constraint.Set, cs ...constraint.Constraint) constraint.Set {
	set.Constraints = append(set.Constraints, cs...)
	return set
}

func solveRange(events []*model.Event) model.TimeRange {
	tr := model.TimeRange{Start: events[0].StartTime, End: events[0].EndTime}
	for _, ev := range events[1:] {
		if ev.StartTime.Before(tr.Start) {
			tr.Start = ev.StartTime
		}
		if ev.EndTime.After(tr.End) {
			tr.End = ev.EndTime
		}
	}
	return tr
}

// 场景：3人具备usher能力，1个活动需要2名usher，无屏蔽、无软约束
// 期望：恰好2条分配，且是ID最小的2人（次数并列时按ID消解）
func TestGreedy_FillsSlotsWithLowestCountThenID(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	people := []*model.Person{
		newTestPerson("甲", "usher"),
		newTestPerson("乙", "usher"),
		newTestPerson("丙", "usher"),
	}
	events := []*model.Event{
		newTestEvent("主日聚会", base, 2*time.Hour, map[string]int{"usher": 2}),
	}

	sctx := NewContext(testOrgID, solveRange(events), people, events)
	result := NewGreedy(hardOnlySet()).Solve(context.Background(), sctx)

	if len(result.Assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(result.Assignments))
	}
	if len(result.Unfilled) != 0 {
		t.Errorf("Expected 0 unfilled slots, got %d", len(result.Unfilled))
	}
	if result.SoftScore != 0 {
		t.Errorf("Expected 0 soft score, got %f", result.SoftScore)
	}

	// 期望选中ID最小的2人
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID.String()
	}
	sort.Strings(ids)

	got := map[string]bool{}
	for _, a := range result.Assignments {
		got[a.PersonID.String()] = true
	}
	if !got[ids[0]] || !got[ids[1]] {
		t.Errorf("Expected the two lowest IDs %v to be assigned, got %v", ids[:2], got)
	}
}

// 场景：唯一具备能力的人员在活动日期被屏蔽
// 期望：席位留空并报告可用性原因，不视为错误
func TestGreedy_BlockedPersonLeavesSlotUnfilled(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	p := newTestPerson("甲", "usher")
	p.Unavailable = []model.UnavailableRange{
		{Start: base.Add(-24 * time.Hour), End: base.Add(48 * time.Hour), Reason: "休假"},
	}

	events := []*model.Event{
		newTestEvent("主日聚会", base, 2*time.Hour, map[string]int{"usher": 1}),
	}

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{p}, events)
	result := NewGreedy(hardOnlySet()).Solve(context.Background(), sctx)

	if len(result.Assignments) != 0 {
		t.Fatalf("Expected 0 assignments, got %d", len(result.Assignments))
	}
	if len(result.Unfilled) != 1 {
		t.Fatalf("Expected 1 unfilled slot, got %d", len(result.Unfilled))
	}
	if result.Unfilled[0].Reason != "具备岗位能力的人员均不可用" {
		t.Errorf("Unexpected unfilled reason: %s", result.Unfilled[0].Reason)
	}
}

// 场景：冷却期N=7天权重10，P三天前刚服务过，Q空闲
// 期望：Q被选中，方案软约束得分为0
func TestGreedy_CooldownPrefersRestedCandidate(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	pa := newTestPerson("甲", "usher")
	pb := newTestPerson("乙", "usher")

	events := []*model.Event{
		newTestEvent("活动一", base, 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动二", base.Add(3*24*time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
	}

	set := withSoft(hardOnlySet(), constraint.Constraint{
		ID: uuid.New(), Predicate: constraint.PredicateCooldown, Kind: model.ConstraintSoft,
		Weight: 10, Scope: constraint.ScopeOrg, CooldownDays: 7,
	})

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{pa, pb}, events)
	result := NewGreedy(set).Solve(context.Background(), sctx)

	if len(result.Assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Assignments[0].PersonID == result.Assignments[1].PersonID {
		t.Error("Expected different people for the two events (cooldown window is 7 days)")
	}
	if result.SoftScore != 0 {
		t.Errorf("Expected 0 soft score, got %f", result.SoftScore)
	}
}

// 场景：稳定模式，锚定方案把席位分给特定人员
// 期望：数据不变时重排产出与锚定方案一致的分配
func TestGreedy_StabilizeKeepsAnchorAssignment(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	pa := newTestPerson("甲", "usher")
	pb := newTestPerson("乙", "usher")

	events := []*model.Event{
		newTestEvent("主日聚会", base, 2*time.Hour, map[string]int{"usher": 1}),
	}

	// 锚定方案指定乙（若按ID消解可能选中甲）
	anchor := &model.Solution{
		BaseModel: model.NewBaseModel(),
		OrgID:     testOrgID,
		Assignments: []model.Assignment{
			{EventID: events[0].ID, Role: "usher", Ordinal: 0, PersonID: pb.ID,
				StartTime: events[0].StartTime, EndTime: events[0].EndTime},
		},
	}

	set := withSoft(hardOnlySet(), constraint.Constraint{
		ID: uuid.New(), Predicate: constraint.PredicateMinimizeChange, Kind: model.ConstraintSoft,
		Weight: 3, Scope: constraint.ScopeOrg,
	})

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{pa, pb}, events)
	sctx.SetAnchor(anchor)
	result := NewGreedy(set).Solve(context.Background(), sctx)

	if len(result.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(result.Assignments))
	}
	if result.Assignments[0].PersonID != pb.ID {
		t.Errorf("Expected anchor person to keep the slot, got %s", result.Assignments[0].PersonID)
	}
	if result.SoftScore != 0 {
		t.Errorf("Expected 0 soft score, got %f", result.SoftScore)
	}
}

// 场景：5个活动需要的岗位无人具备
// 期望：5条未填补记录，原因指出无人具备该岗位能力
func TestGreedy_NoEligiblePeopleReportsAllUnfilled(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	people := []*model.Person{newTestPerson("甲", "usher")}

	var events []*model.Event
	for i := 0; i < 5; i++ {
		events = append(events, newTestEvent("活动", base.Add(time.Duration(i)*24*time.Hour),
			2*time.Hour, map[string]int{"guard": 1}))
	}

	sctx := NewContext(testOrgID, solveRange(events), people, events)
	result := NewGreedy(hardOnlySet()).Solve(context.Background(), sctx)

	if len(result.Unfilled) != 5 {
		t.Fatalf("Expected 5 unfilled slots, got %d", len(result.Unfilled))
	}
	for _, u := range result.Unfilled {
		if u.Reason != "无人具备岗位能力 'guard'" {
			t.Errorf("Unexpected unfilled reason: %s", u.Reason)
		}
	}
	if result.Statistics.FillRate != 0 {
		t.Errorf("Expected 0 fill rate, got %f", result.Statistics.FillRate)
	}
}

// 同一人员不得持有时间重叠的分配
func TestGreedy_NoDoubleBookingAcrossOverlappingEvents(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	people := []*model.Person{newTestPerson("甲", "usher")}
	events := []*model.Event{
		newTestEvent("活动一", base, 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动二", base.Add(time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
	}

	sctx := NewContext(testOrgID, solveRange(events), people, events)
	result := NewGreedy(hardOnlySet()).Solve(context.Background(), sctx)

	if len(result.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(result.Assignments))
	}
	if len(result.Unfilled) != 1 {
		t.Fatalf("Expected 1 unfilled slot, got %d", len(result.Unfilled))
	}
}

// 相同输入必须产出逐位一致的分配集
func TestGreedy_Deterministic(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	people := []*model.Person{
		newTestPerson("甲", "usher", "musician"),
		newTestPerson("乙", "usher"),
		newTestPerson("丙", "usher", "musician"),
		newTestPerson("丁", "musician"),
	}
	var events []*model.Event
	for i := 0; i < 6; i++ {
		events = append(events, newTestEvent("活动", base.Add(time.Duration(i)*24*time.Hour),
			3*time.Hour, map[string]int{"usher": 2, "musician": 1}))
	}

	set := withSoft(hardOnlySet(),
		constraint.Constraint{ID: uuid.New(), Predicate: constraint.PredicateFairnessBalance,
			Kind: model.ConstraintSoft, Weight: 5, Scope: constraint.ScopeOrg},
		constraint.Constraint{ID: uuid.New(), Predicate: constraint.PredicateCooldown,
			Kind: model.ConstraintSoft, Weight: 2, Scope: constraint.ScopeOrg, CooldownDays: 2},
	)

	run := func() *Result {
		sctx := NewContext(testOrgID, solveRange(events), people, events)
		return NewGreedy(set).Solve(context.Background(), sctx)
	}

	first := run()
	second := run()

	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("Assignment count differs between runs: %d vs %d",
			len(first.Assignments), len(second.Assignments))
	}
	for i := range first.Assignments {
		if first.Assignments[i] != second.Assignments[i] {
			t.Errorf("Assignment %d differs between runs: %+v vs %+v",
				i, first.Assignments[i], second.Assignments[i])
		}
	}
	if first.SoftScore != second.SoftScore {
		t.Errorf("Soft score differs between runs: %f vs %f", first.SoftScore, second.SoftScore)
	}
}

// 修复阶段：贪心短视地把锚定人员排进了错误的活动，换岗后总惩罚归零
func TestGreedy_RepairSwapsToReduceSoftScore(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	pa := newTestPerson("甲", "usher")
	pb := newTestPerson("乙", "usher")
	// 保证甲的ID更小，贪心在并列时先选甲
	if pb.ID.String() < pa.ID.String() {
		pa, pb = pb, pa
	}

	events := []*model.Event{
		newTestEvent("活动一", base, 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动二", base.Add(2*24*time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
	}

	// 锚定方案把甲放在活动二；冷却期让同一人连排两场代价更高
	anchor := &model.Solution{
		BaseModel: model.NewBaseModel(),
		OrgID:     testOrgID,
		Assignments: []model.Assignment{
			{EventID: events[1].ID, Role: "usher", Ordinal: 0, PersonID: pa.ID,
				StartTime: events[1].StartTime, EndTime: events[1].EndTime},
		},
	}

	set := withSoft(hardOnlySet(),
		constraint.Constraint{ID: uuid.New(), Predicate: constraint.PredicateCooldown,
			Kind: model.ConstraintSoft, Weight: 10, Scope: constraint.ScopeOrg, CooldownDays: 7},
		constraint.Constraint{ID: uuid.New(), Predicate: constraint.PredicateMinimizeChange,
			Kind: model.ConstraintSoft, Weight: 3, Scope: constraint.ScopeOrg},
	)

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{pa, pb}, events)
	sctx.SetAnchor(anchor)
	result := NewGreedy(set).Solve(context.Background(), sctx)

	if len(result.Assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Statistics.RepairSwaps != 1 {
		t.Errorf("Expected 1 repair swap, got %d", result.Statistics.RepairSwaps)
	}
	if got := result.Assignments[1].PersonID; got != pa.ID {
		t.Errorf("Expected anchor person on event two after repair, got %s", got)
	}
	if result.SoftScore != 0 {
		t.Errorf("Expected 0 soft score after repair, got %f", result.SoftScore)
	}
}

// 约束集只含软约束时，修复换岗也不得引入同一人员的时间重叠分配：
// 可用性判定不依赖约束集是否配置了 no_double_booking
func TestGreedy_RepairKeepsAvailabilityWithSoftOnlySet(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	pa := newTestPerson("甲", "usher")
	pb := newTestPerson("乙", "usher")
	// 保证甲的ID更小，贪心在并列时先选甲
	if pb.ID.String() < pa.ID.String() {
		pa, pb = pb, pa
	}

	// 活动二与活动三同日时间重叠；把活动一的人换到活动二虽然能降低
	// 冷却期惩罚，但会让同一人同时持有活动二和活动三
	events := []*model.Event{
		newTestEvent("活动一", base, 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动二", base.Add(3*24*time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动三", base.Add(3*24*time.Hour+time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
	}

	set := constraint.Set{
		Version: "soft-only",
		Constraints: []constraint.Constraint{
			{ID: uuid.New(), Predicate: constraint.PredicateCooldown, Kind: model.ConstraintSoft,
				Weight: 10, Scope: constraint.ScopeOrg, CooldownDays: 7},
		},
	}

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{pa, pb}, events)
	result := NewGreedy(set).Solve(context.Background(), sctx)

	if len(result.Assignments) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(result.Assignments))
	}
	if result.Statistics.RepairSwaps != 0 {
		t.Errorf("Expected no feasible repair swap, got %d", result.Statistics.RepairSwaps)
	}

	byPerson := map[string][]model.Assignment{}
	for _, a := range result.Assignments {
		byPerson[a.PersonID.String()] = append(byPerson[a.PersonID.String()], a)
	}
	for id, list := range byPerson {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].OverlapsWith(&list[j]) {
					t.Errorf("Person %s holds overlapping assignments %+v and %+v", id, list[i], list[j])
				}
			}
		}
	}
}

// 停用人员不计入次数均衡的人头基数
func TestContext_PeopleCountExcludesInactive(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	pa := newTestPerson("甲", "usher")
	pb := newTestPerson("乙", "usher")
	pb.Status = "inactive"
	events := []*model.Event{
		newTestEvent("主日聚会", base, 2*time.Hour, map[string]int{"usher": 1}),
	}

	sctx := NewContext(testOrgID, solveRange(events), []*model.Person{pa, pb}, events)
	if got := sctx.PeopleCount(); got != 1 {
		t.Errorf("Expected 1 active person, got %d", got)
	}
	if got := sctx.Fresh().PeopleCount(); got != 1 {
		t.Errorf("Expected fresh context to keep the active count, got %d", got)
	}
}

// 取消只在修复阶段生效：贪心结果保留并打上未完成标记
func TestGreedy_CancellationMarksIncomplete(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	people := []*model.Person{
		newTestPerson("甲", "usher"),
		newTestPerson("乙", "usher"),
	}
	events := []*model.Event{
		newTestEvent("活动一", base, 2*time.Hour, map[string]int{"usher": 1}),
		newTestEvent("活动二", base.Add(24*time.Hour), 2*time.Hour, map[string]int{"usher": 1}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sctx := NewContext(testOrgID, solveRange(events), people, events)
	result := NewGreedy(hardOnlySet()).Solve(ctx, sctx)

	if !result.Incomplete {
		t.Error("Expected result to be marked incomplete after cancellation")
	}
	if len(result.Assignments) != 2 {
		t.Errorf("Expected greedy assignments to be kept, got %d", len(result.Assignments))
	}
}

// 岗位配置非法属于配置错误，须在求解前返回
func TestValidateEvents(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *model.Event
		wantErr bool
	}{
		{"正常配置", newTestEvent("活动", base, time.Hour, map[string]int{"usher": 2}), false},
		{"空岗位名", newTestEvent("活动", base, time.Hour, map[string]int{"": 1}), true},
		{"人数为零", newTestEvent("活动", base, time.Hour, map[string]int{"usher": 0}), true},
		{"人数为负", newTestEvent("活动", base, time.Hour, map[string]int{"usher": -1}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvents([]*model.Event{tt.event})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvents() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEvents_EndBeforeStart(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	ev := newTestEvent("活动", base, time.Hour, map[string]int{"usher": 1})
	ev.EndTime = ev.StartTime

	if err := ValidateEvents([]*model.Event{ev}); err == nil {
		t.Error("Expected error for event with end time not after start time")
	}
}

// 席位生成顺序必须固定：开始时间、活动ID、岗位名、序号
func TestBuildSlots_DeterministicOrder(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	e1 := newTestEvent("早场", base, time.Hour, map[string]int{"usher": 2, "musician": 1})
	e2 := newTestEvent("晚场", base.Add(8*time.Hour), time.Hour, map[string]int{"usher": 1})

	slots := BuildSlots([]*model.Event{e2, e1})

	if len(slots) != 4 {
		t.Fatalf("Expected 4 slots, got %d", len(slots))
	}
	// 早场在前，岗位名升序：musician 先于 usher
	if slots[0].EventID != e1.ID || slots[0].Role != "musician" {
		t.Errorf("Expected first slot to be musician of the earlier event, got %s/%s",
			slots[0].EventID, slots[0].Role)
	}
	if slots[1].Role != "usher" || slots[1].Ordinal != 0 || slots[2].Ordinal != 1 {
		t.Errorf("Expected usher ordinals 0 then 1, got %+v %+v", slots[1], slots[2])
	}
	if slots[3].EventID != e2.ID {
		t.Errorf("Expected last slot to belong to the later event")
	}
}
