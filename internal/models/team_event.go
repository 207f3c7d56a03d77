package models

import (
	"slices"
	"time"
)

const (
	EventKindHoliday  = "holiday"
	EventKindClosure  = "closure"
	EventKindAllHands = "all_hands"
	EventKindOther    = "other"
)

// TeamEvent removes capacity from everyone, or from the listed employees, on
// a single date.
type TeamEvent struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Kind                string    `gorm:"type:varchar(20);not null;default:'other'" json:"kind"`
	Date                time.Time `gorm:"type:date;not null;index" json:"date"`
	HoursReduction      float64   `gorm:"not null;default:0" json:"hours_reduction"`
	AffectedEmployeeIDs []uint    `gorm:"serializer:json" json:"affected_employee_ids,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (TeamEvent) TableName() string {
	return "team_events"
}

// IsGlobal reports whether the event applies to all staff.
func (e TeamEvent) IsGlobal() bool {
	return len(e.AffectedEmployeeIDs) == 0
}

// Affects reports whether the event reduces the employee's capacity.
func (e TeamEvent) Affects(employeeID uint) bool {
	return e.IsGlobal() || slices.Contains(e.AffectedEmployeeIDs, employeeID)
}

// IsValid checks the record before it is written.
func (e *TeamEvent) IsValid() bool {
	return e.Name != "" && !e.Date.IsZero() && e.HoursReduction >= 0 && e.HoursReduction <= 24
}
