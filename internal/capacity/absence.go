package capacity

import (
	"time"

	"workload-planner/internal/models"
)

// AbsenceDetail explains how many hours one absence removed from a range.
type AbsenceDetail struct {
	AbsenceID uint
	Type      string
	Start     time.Time
	End       time.Time
	FullDay   bool
	Days      int
	Hours     float64
}

// AbsenceHours returns the capacity hours lost to absences within
// [rangeStart, rangeEnd]. Absences are evaluated independently and summed,
// overlapping records included.
func AbsenceHours(rangeStart, rangeEnd time.Time, absences []models.Absence, schedule models.WeekSchedule) float64 {
	details := AbsenceDetails(rangeStart, rangeEnd, absences, schedule)
	hours := make([]float64, 0, len(details))
	for _, d := range details {
		hours = append(hours, d.Hours)
	}
	return sumHours(hours...)
}

// AbsenceDetails returns one entry per absence that removed hours from the range.
func AbsenceDetails(rangeStart, rangeEnd time.Time, absences []models.Absence, schedule models.WeekSchedule) []AbsenceDetail {
	query := NewDateRange(rangeStart, rangeEnd)
	var details []AbsenceDetail
	for _, a := range absences {
		clipped, ok := NewDateRange(a.StartDate, a.EndDate).Clip(query)
		if !ok {
			continue
		}
		detail := reduceAbsence(a, clipped, schedule)
		if detail.Hours > 0 {
			details = append(details, detail)
		}
	}
	return details
}

func reduceAbsence(a models.Absence, r DateRange, schedule models.WeekSchedule) AbsenceDetail {
	var lost []float64
	days := 0
	r.Days(func(day time.Time) {
		scheduled := schedule.HoursOn(day.Weekday())
		if scheduled <= 0 {
			return
		}
		days++
		if a.IsFullDay() {
			lost = append(lost, scheduled)
			return
		}
		lost = append(lost, min(a.Hours, scheduled, models.MaxAbsenceHoursPerDay))
	})
	return AbsenceDetail{
		AbsenceID: a.ID,
		Type:      a.Type,
		Start:     r.Start,
		End:       r.End,
		FullDay:   a.IsFullDay(),
		Days:      days,
		Hours:     sumHours(lost...),
	}
}

// coversDay reports whether any absence includes the day.
func coversDay(absences []models.Absence, day time.Time) bool {
	for _, a := range absences {
		if a.Covers(day) {
			return true
		}
	}
	return false
}
