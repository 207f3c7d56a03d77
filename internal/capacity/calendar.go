package capacity

import (
	"fmt"
	"slices"
	"time"

	"workload-planner/internal/models"
)

const (
	// DateLayout formats date keys, including week storage keys.
	DateLayout = "2006-01-02"
	// MonthLayout formats month keys used by edit locks.
	MonthLayout = "2006-01"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both ends to calendar days.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Clip intersects r with other. ok is false when they do not overlap.
func (r DateRange) Clip(other DateRange) (DateRange, bool) {
	start, end := r.Start, r.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

// Contains reports whether the day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days calls fn for every calendar day in the range.
func (r DateRange) Days(fn func(day time.Time)) {
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Day strips the clock from t, keeping its calendar date, at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar day as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// MonthKey formats a month as YYYY-MM.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonthKey parses a YYYY-MM key.
func ParseMonthKey(key string) (int, time.Month, error) {
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t.Year(), t.Month(), nil
}

// StartOfWeek returns the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekRange returns the seven days starting at weekStart.
func WeekRange(weekStart time.Time) DateRange {
	start := Day(weekStart)
	return DateRange{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthRange returns the first and last day of a month.
func MonthRange(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// WorkingHoursInRange sums the scheduled hours of every day in [start, end].
// Holidays are not considered here; they are team events.
func WorkingHoursInRange(start, end time.Time, schedule models.WeekSchedule) float64 {
	var hours []float64
	NewDateRange(start, end).Days(func(day time.Time) {
		hours = append(hours, schedule.HoursOn(day.Weekday()))
	})
	return sumHours(hours...)
}

// WorkingDaysInRange counts the days in [start, end] with scheduled hours.
func WorkingDaysInRange(start, end time.Time, schedule models.WeekSchedule) int {
	days := 0
	NewDateRange(start, end).Days(func(day time.Time) {
		if schedule.HoursOn(day.Weekday()) > 0 {
			days++
		}
	})
	return days
}

// MonthlyCapacity is the scheduled hours across a whole month.
func MonthlyCapacity(year int, month time.Month, schedule models.WeekSchedule) float64 {
	r := MonthRange(year, month)
	return WorkingHoursInRange(r.Start, r.End, schedule)
}

// WeekBucket is one Monday-start week as seen from a month. The effective
// range is clipped to the month so edge weeks only count in-month days.
type WeekBucket struct {
	WeekStart      time.Time
	EffectiveStart time.Time
	EffectiveEnd   time.Time
	Key            string
}

// Clipped reports whether the month boundary cut the week short.
func (b WeekBucket) Clipped() bool {
	return !b.EffectiveStart.Equal(b.WeekStart) || !b.EffectiveEnd.Equal(b.WeekStart.AddDate(0, 0, 6))
}

// Range returns the effective range of the bucket.
func (b WeekBucket) Range() DateRange {
	return DateRange{Start: b.EffectiveStart, End: b.EffectiveEnd}
}

// WeeksForMonth partitions a month into Monday-start week buckets.
func WeeksForMonth(year int, month time.Month) []WeekBucket {
	m := MonthRange(year, month)
	var buckets []WeekBucket
	for ws := StartOfWeek(m.Start); !ws.After(m.End); ws = ws.AddDate(0, 0, 7) {
		clipped, _ := WeekRange(ws).Clip(m)
		buckets = append(buckets, WeekBucket{
			WeekStart:      ws,
			EffectiveStart: clipped.Start,
			EffectiveEnd:   clipped.End,
			Key:            StorageKey(ws, year, month),
		})
	}
	return buckets
}

// StorageKey identifies a week bucket within a month. It is the bucket's
// first in-month day: the Monday itself, or the 1st when the week began in
// the previous month. A week that spans two months therefore gets one key
// per month.
func StorageKey(weekStart time.Time, year int, month time.Month) string {
	ws := StartOfWeek(weekStart)
	first := MonthRange(year, month).Start
	if ws.Before(first) {
		return DateKey(first)
	}
	return DateKey(ws)
}

// MonthKeys returns the storage keys of every bucket in a month.
func MonthKeys(year int, month time.Month) []string {
	buckets := WeeksForMonth(year, month)
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		keys = append(keys, b.Key)
	}
	return keys
}

// WeekKeys returns the storage keys a Monday-start week's hours may be filed
// under: the Monday, plus the 1st of the next month when the week crosses
// into it.
func WeekKeys(weekStart time.Time) []string {
	ws := StartOfWeek(weekStart)
	end := ws.AddDate(0, 0, 6)
	keys := []string{StorageKey(ws, ws.Year(), ws.Month())}
	if end.Month() != ws.Month() {
		keys = append(keys, StorageKey(ws, end.Year(), end.Month()))
	}
	return keys
}

// IsStorageKey reports whether key names a week bucket: a Monday, or the 1st
// of a month that does not start on a Monday.
func IsStorageKey(key string) bool {
	t, err := ParseDateKey(key)
	if err != nil {
		return false
	}
	return slices.Contains(MonthKeys(t.Year(), t.Month()), key)
}
