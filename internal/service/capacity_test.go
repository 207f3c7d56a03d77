package service

import (
	"context"
	"strings"
	"testing"
)

func TestCapacityTexts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.employee(t, "Alice")
	absences := NewAbsenceService(env.store.Absences, env.store.Employees, env.logger)
	allocations := NewAllocationService(env.store.Allocations, env.logger)

	if _, err := absences.AddAbsence(ctx, emp.ID, day(2026, 10, 14), day(2026, 10, 14), "vacation", 0, ""); err != nil {
		t.Fatalf("add absence: %v", err)
	}
	if _, err := allocations.Assign(ctx, emp.ID, 1, "2026-10-12", 20); err != nil {
		t.Fatalf("assign: %v", err)
	}

	svc := NewCapacityService(env.ws)
	week := svc.WeekText(emp.ID, day(2026, 10, 15))
	for _, want := range []string{"Alice, week of Oct 12", "20.00 / 32.00 h", "62.50%", "Vacation (Oct 14): 8.00 h"} {
		if !strings.Contains(week, want) {
			t.Fatalf("expected week text to contain %q, got:\n%s", want, week)
		}
	}

	month := svc.MonthText(emp.ID, 2026, 10)
	if !strings.Contains(month, "October 2026") || strings.Count(month, "\n") < 7 {
		t.Fatalf("unexpected month text:\n%s", month)
	}

	team := svc.TeamText(day(2026, 10, 12))
	if !strings.Contains(team, "🟢 Alice") {
		t.Fatalf("expected a healthy badge for Alice, got:\n%s", team)
	}
}

func TestWeekTextCountsMonthStartBucket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emp := env.employee(t, "Ana")
	allocations := NewAllocationService(env.store.Allocations, env.logger)

	if _, err := allocations.Assign(ctx, emp.ID, 1, "2026-10-01", 16); err != nil {
		t.Fatalf("assign: %v", err)
	}

	svc := NewCapacityService(env.ws)
	week := svc.WeekText(emp.ID, day(2026, 10, 1))
	if !strings.Contains(week, "Ana, week of Sep 28") || !strings.Contains(week, "16.00 / 40.00 h") {
		t.Fatalf("expected the Oct 1 bucket to count in its calendar week, got:\n%s", week)
	}
	if team := svc.TeamText(day(2026, 9, 29)); !strings.Contains(team, "Ana: 16.00 / 40.00 h") {
		t.Fatalf("expected the team view to count it too, got:\n%s", team)
	}
}
