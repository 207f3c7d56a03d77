package service

import (
	"fmt"
	"strings"
	"time"

	"workload-planner/internal/capacity"
	"workload-planner/internal/workspace"
)

// CapacityService renders engine results as chat text.
type CapacityService struct {
	ws *workspace.Workspace
}

func NewCapacityService(ws *workspace.Workspace) *CapacityService {
	return &CapacityService{ws: ws}
}

func (s *CapacityService) employeeName(id uint) string {
	if e, ok := s.ws.Employee(id); ok {
		return e.Name
	}
	return fmt.Sprintf("Employee #%d", id)
}

// WeekText describes an employee's load for the week containing day.
func (s *CapacityService) WeekText(employeeID uint, day time.Time) string {
	load := s.ws.Engine().LoadForCalendarWeek(employeeID, day)

	var b strings.Builder
	fmt.Fprintf(&b, "%s, week of %s\n", s.employeeName(employeeID), capacity.StartOfWeek(day).Format("Jan 2"))
	writeLoad(&b, load)
	return b.String()
}

// MonthText describes an employee's month, then each of its week buckets.
func (s *CapacityService) MonthText(employeeID uint, year int, month time.Month) string {
	engine := s.ws.Engine()
	load := engine.LoadForMonth(employeeID, year, month)

	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s %d\n", s.employeeName(employeeID), month, year)
	writeLoad(&b, load)
	b.WriteString("\nWeeks:\n")
	for _, w := range engine.LoadForMonthWeeks(employeeID, year, month) {
		fmt.Fprintf(&b, "%s – %s: %.2f / %.2f h %s\n",
			w.Bucket.EffectiveStart.Format("Jan 2"),
			w.Bucket.EffectiveEnd.Format("Jan 2"),
			w.Load.Hours, w.Load.Capacity, statusIcon(w.Load.Status))
	}
	return b.String()
}

// TeamText lists every active employee's load for the week containing day.
func (s *CapacityService) TeamText(day time.Time) string {
	team := s.ws.Engine().TeamLoadForCalendarWeek(day)
	if len(team) == 0 {
		return "No active employees"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Team load, week of %s\n", capacity.StartOfWeek(day).Format("Jan 2"))
	for _, el := range team {
		fmt.Fprintf(&b, "%s %s: %.2f / %.2f h (%s)\n",
			statusIcon(el.Load.Status), el.Employee.Name,
			el.Load.Hours, el.Load.Capacity, percentText(el.Load))
	}
	return b.String()
}

func writeLoad(b *strings.Builder, load capacity.LoadResult) {
	fmt.Fprintf(b, "%s %.2f / %.2f h (%s), %s\n",
		statusIcon(load.Status), load.Hours, load.Capacity, percentText(load), load.Status)
	if load.BaseCapacity != load.Capacity {
		fmt.Fprintf(b, "Base capacity %.2f h\n", load.BaseCapacity)
	}
	for _, r := range load.Breakdown {
		fmt.Fprintf(b, "  - %s: %.2f h\n", r.Reason, r.Hours)
	}
}

func percentText(load capacity.LoadResult) string {
	if load.Percentage >= capacity.InfinitePercentage {
		return "no capacity"
	}
	return fmt.Sprintf("%.2f%%", load.Percentage)
}

func statusIcon(status capacity.Status) string {
	switch status {
	case capacity.StatusHealthy:
		return "🟢"
	case capacity.StatusWarning:
		return "🟡"
	case capacity.StatusOverload:
		return "🔴"
	default:
		return "⚪"
	}
}
