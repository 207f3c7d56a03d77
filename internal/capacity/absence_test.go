package capacity

import (
	"testing"

	"workload-planner/internal/models"
)

func TestAbsenceHours(t *testing.T) {
	s := models.StandardWeek()
	weekStart, weekEnd := date(t, "2026-10-12"), date(t, "2026-10-18")

	cases := []struct {
		name     string
		absences []models.Absence
		want     float64
	}{
		{
			name: "full day on a weekday",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-14"), EndDate: date(t, "2026-10-14"), Type: models.AbsenceTypeVacation},
			},
			want: 8,
		},
		{
			name: "full days over a weekend count weekdays only",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-16"), EndDate: date(t, "2026-10-20"), Type: models.AbsenceTypeSick},
			},
			want: 8,
		},
		{
			name: "partial day per scheduled day",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-12"), EndDate: date(t, "2026-10-13"), Type: models.AbsenceTypePersonal, Hours: 3},
			},
			want: 6,
		},
		{
			name: "partial hours capped at the schedule",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-12"), EndDate: date(t, "2026-10-12"), Type: models.AbsenceTypePersonal, Hours: 12},
			},
			want: 8,
		},
		{
			name: "partial day on a weekend removes nothing",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-17"), EndDate: date(t, "2026-10-18"), Type: models.AbsenceTypePersonal, Hours: 4},
			},
			want: 0,
		},
		{
			name: "outside the range",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-05"), EndDate: date(t, "2026-10-09"), Type: models.AbsenceTypeVacation},
			},
			want: 0,
		},
		{
			name: "overlapping records are summed",
			absences: []models.Absence{
				{ID: 1, StartDate: date(t, "2026-10-14"), EndDate: date(t, "2026-10-14"), Type: models.AbsenceTypeVacation},
				{ID: 2, StartDate: date(t, "2026-10-14"), EndDate: date(t, "2026-10-14"), Type: models.AbsenceTypePersonal, Hours: 2},
			},
			want: 10,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := AbsenceHours(weekStart, weekEnd, c.absences, s); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestAbsenceDetailsClipToRange(t *testing.T) {
	s := models.StandardWeek()
	absences := []models.Absence{
		{ID: 7, StartDate: date(t, "2026-09-28"), EndDate: date(t, "2026-10-06"), Type: models.AbsenceTypeVacation},
	}
	details := AbsenceDetails(date(t, "2026-10-01"), date(t, "2026-10-04"), absences, s)
	if len(details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(details))
	}
	d := details[0]
	if DateKey(d.Start) != "2026-10-01" || DateKey(d.End) != "2026-10-04" {
		t.Fatalf("expected clip to Oct 1-4, got %s - %s", DateKey(d.Start), DateKey(d.End))
	}
	if d.Days != 2 || d.Hours != 16 || !d.FullDay || d.AbsenceID != 7 {
		t.Fatalf("unexpected detail %+v", d)
	}
}
