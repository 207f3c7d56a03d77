package handler

import (
	"fmt"
	"strings"
	"time"

	"workload-planner/internal/capacity"
)

func parseDate(dateStr string, now time.Time) (time.Time, error) {
	formats := []string{
		capacity.DateLayout,
		"02.01.2006",
		"02-01-2006",
		"02.01",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			// Day and month only: current year.
			if !strings.Contains(format, "2006") {
				t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
			return capacity.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or DD.MM.YYYY", dateStr)
}

// dayArg parses an optional date argument, defaulting to today.
func dayArg(args string, now time.Time) (time.Time, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return capacity.Day(now), nil
	}
	return parseDate(args, now)
}

// monthArg parses an optional YYYY-MM argument, defaulting to this month.
func monthArg(args string, now time.Time) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return capacity.MonthKey(now.Year(), now.Month()), nil
	}
	if _, _, err := capacity.ParseMonthKey(args); err != nil {
		return "", fmt.Errorf("invalid month %q, use YYYY-MM", args)
	}
	return args, nil
}
