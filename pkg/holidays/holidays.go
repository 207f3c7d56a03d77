// Package holidays reads team calendars: public holidays in the
// production-calendar month format ("1,2,7+,8*") plus explicit team events.
// Files are YAML; JSON calendars parse as well since YAML is a superset.
package holidays

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FullDayHours removes a whole working day; reductions are capped at the
	// scheduled hours downstream.
	FullDayHours = 24
	// DefaultShortenedHours is cut from a pre-holiday day marked with "*".
	DefaultShortenedHours = 1

	KindHoliday = "holiday"
	KindOther   = "other"
)

// Calendar is the file layout.
type Calendar struct {
	Year           int           `yaml:"year" json:"year"`
	HolidayName    string        `yaml:"holiday_name" json:"holiday_name"`
	ShortenedHours float64       `yaml:"shortened_hours" json:"shortened_hours"`
	Months         []MonthDays   `yaml:"months" json:"months"`
	Events         []EventRecord `yaml:"events" json:"events"`
}

// MonthDays lists the day numbers of one month. A "+" suffix marks a moved
// holiday and is read as a holiday; a "*" suffix marks a shortened day.
type MonthDays struct {
	Month int    `yaml:"month" json:"month"`
	Days  string `yaml:"days" json:"days"`
}

// EventRecord is an explicit team event. Employees empty means all staff.
type EventRecord struct {
	Name      string  `yaml:"name" json:"name"`
	Date      string  `yaml:"date" json:"date"`
	Hours     float64 `yaml:"hours" json:"hours"`
	Kind      string  `yaml:"kind" json:"kind"`
	Employees []uint  `yaml:"employees" json:"employees"`
}

// Entry is one capacity-reducing day read from a calendar.
type Entry struct {
	Name      string
	Kind      string
	Date      time.Time
	Hours     float64
	Employees []uint
}

// ParseFile reads and parses a calendar file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a calendar and expands it into entries sorted by date.
func Parse(data []byte) ([]Entry, error) {
	var cal Calendar
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}
	return cal.Entries()
}

// Entries expands month day lists and explicit events.
func (c Calendar) Entries() ([]Entry, error) {
	name := c.HolidayName
	if name == "" {
		name = "Public holiday"
	}
	shortened := c.ShortenedHours
	if shortened <= 0 {
		shortened = DefaultShortenedHours
	}

	var entries []Entry
	for _, m := range c.Months {
		if m.Month < 1 || m.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", m.Month)
		}
		if c.Year == 0 {
			return nil, fmt.Errorf("month %d listed without a year", m.Month)
		}
		for _, raw := range strings.Split(m.Days, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			isShort := strings.HasSuffix(raw, "*")
			dayStr := strings.TrimSuffix(strings.TrimSuffix(raw, "*"), "+")

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", raw, m.Month, err)
			}
			date := time.Date(c.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(m.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, m.Month)
			}

			if isShort {
				entries = append(entries, Entry{Name: "Shortened day", Kind: KindHoliday, Date: date, Hours: shortened})
				continue
			}
			entries = append(entries, Entry{Name: name, Kind: KindHoliday, Date: date, Hours: FullDayHours})
		}
	}

	for _, ev := range c.Events {
		date, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date of event '%s': %w", ev.Name, err)
		}
		if ev.Name == "" {
			return nil, fmt.Errorf("event on %s has no name", ev.Date)
		}
		kind := ev.Kind
		if kind == "" {
			kind = KindOther
		}
		hours := ev.Hours
		if hours == 0 {
			hours = FullDayHours
		}
		if hours < 0 || hours > FullDayHours {
			return nil, fmt.Errorf("event '%s' reduces %.2f hours, want 0-24", ev.Name, hours)
		}
		entries = append(entries, Entry{
			Name:      ev.Name,
			Kind:      kind,
			Date:      date,
			Hours:     hours,
			Employees: ev.Employees,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

// ForMonth filters entries to one month.
func ForMonth(entries []Entry, year int, month time.Month) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out
}
