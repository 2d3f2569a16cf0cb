package model

import (
	"testing"
	"time"
)

func TestPerson_HasRole(t *testing.T) {
	p := &Person{Roles: []string{"usher", "musician"}}

	if !p.HasRole("usher") {
		t.Error("Expected person to have role usher")
	}
	if p.HasRole("guard") {
		t.Error("Expected person to not have role guard")
	}
	if p.HasRole("") {
		t.Error("Expected empty role name to never match")
	}
}

func TestPerson_IsActive(t *testing.T) {
	active := &Person{Status: "active"}
	inactive := &Person{Status: "inactive"}
	empty := &Person{}

	if !active.IsActive() {
		t.Error("Expected active person to be active")
	}
	if inactive.IsActive() || empty.IsActive() {
		t.Error("Expected non-active statuses to be inactive")
	}
}

func TestPerson_BlockedDuring(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	p := &Person{
		Unavailable: []UnavailableRange{
			{Start: base, End: base.Add(48 * time.Hour), Reason: "休假"},
			{Start: base.Add(96 * time.Hour), End: base.Add(120 * time.Hour)},
		},
	}

	// 与第一段重叠
	reason, blocked := p.BlockedDuring(TimeRange{Start: base.Add(24 * time.Hour), End: base.Add(26 * time.Hour)})
	if !blocked {
		t.Fatal("Expected person to be blocked during vacation")
	}
	if reason != "休假" {
		t.Errorf("Expected reason 休假, got %s", reason)
	}

	// 与第二段重叠：空原因回退为默认文案
	reason, blocked = p.BlockedDuring(TimeRange{Start: base.Add(100 * time.Hour), End: base.Add(101 * time.Hour)})
	if !blocked {
		t.Fatal("Expected person to be blocked by the second range")
	}
	if reason != "不可用" {
		t.Errorf("Expected default reason, got %s", reason)
	}

	// 两段之间：可用
	if _, blocked := p.BlockedDuring(TimeRange{Start: base.Add(72 * time.Hour), End: base.Add(73 * time.Hour)}); blocked {
		t.Error("Expected person to be available between blocked ranges")
	}
}

func TestEvent_RoleNamesSorted(t *testing.T) {
	ev := &Event{Requirements: map[string]int{"usher": 2, "musician": 1, "greeter": 1}}

	roles := ev.RoleNames()
	want := []string{"greeter", "musician", "usher"}

	if len(roles) != len(want) {
		t.Fatalf("Expected %d roles, got %d", len(want), len(roles))
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("Expected role %s at position %d, got %s", want[i], i, roles[i])
		}
	}

	if ev.TotalSeats() != 4 {
		t.Errorf("Expected 4 total seats, got %d", ev.TotalSeats())
	}
}

func TestSolveMode_Valid(t *testing.T) {
	if !ModeFresh.Valid() || !ModeStabilize.Valid() {
		t.Error("Expected built-in modes to be valid")
	}
	if SolveMode("optimize").Valid() {
		t.Error("Expected unknown mode to be invalid")
	}
}
