package capacity

import (
	"time"

	"workload-planner/internal/models"
)

// EventDetail explains how many hours one team event removed.
type EventDetail struct {
	EventID uint
	Name    string
	Kind    string
	Date    time.Time
	Hours   float64
}

// TeamEventHours returns the capacity hours lost to team events within
// [rangeStart, rangeEnd]. An event on a day the employee is already absent
// is skipped, and no event removes more than that day's scheduled hours.
func TeamEventHours(rangeStart, rangeEnd time.Time, employeeID uint, events []models.TeamEvent, schedule models.WeekSchedule, absences []models.Absence) float64 {
	details := TeamEventDetails(rangeStart, rangeEnd, employeeID, events, schedule, absences)
	hours := make([]float64, 0, len(details))
	for _, d := range details {
		hours = append(hours, d.Hours)
	}
	return sumHours(hours...)
}

// TeamEventDetails returns one entry per event that removed hours from the range.
func TeamEventDetails(rangeStart, rangeEnd time.Time, employeeID uint, events []models.TeamEvent, schedule models.WeekSchedule, absences []models.Absence) []EventDetail {
	query := NewDateRange(rangeStart, rangeEnd)
	var details []EventDetail
	for _, e := range events {
		if !query.Contains(e.Date) || !e.Affects(employeeID) {
			continue
		}
		day := Day(e.Date)
		if coversDay(absences, day) {
			continue
		}
		hours := Round2(min(e.HoursReduction, schedule.HoursOn(day.Weekday())))
		if hours <= 0 {
			continue
		}
		details = append(details, EventDetail{
			EventID: e.ID,
			Name:    e.Name,
			Kind:    e.Kind,
			Date:    day,
			Hours:   hours,
		})
	}
	return details
}
