package capacity

import (
	"testing"
	"time"

	"workload-planner/internal/models"
)

func date(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := ParseDateKey(key)
	if err != nil {
		t.Fatalf("bad test date %q: %v", key, err)
	}
	return d
}

func standardEmployee(id uint, name string) models.Employee {
	s := models.StandardWeek()
	return models.Employee{ID: id, Name: name, Schedule: s, DefaultWeeklyCapacity: s.Total(), Active: true}
}
