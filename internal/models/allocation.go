package models

import (
	"time"
)

// Allocation statuses
const (
	AllocationPlanned   = "planned"
	AllocationActive    = "active"
	AllocationCompleted = "completed"
)

// Allocation commits an employee's hours to a project for one week bucket.
// WeekStart is the bucket's storage key (YYYY-MM-DD).
type Allocation struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	EmployeeID    uint      `gorm:"not null;index:idx_alloc_employee_week" json:"employee_id"`
	ProjectID     uint      `gorm:"not null;index" json:"project_id"`
	WeekStart     string    `gorm:"type:varchar(10);not null;index:idx_alloc_employee_week" json:"week_start"`
	HoursAssigned float64   `gorm:"not null;default:0" json:"hours_assigned"`
	HoursActual   float64   `gorm:"not null;default:0" json:"hours_actual"`
	HoursComputed float64   `gorm:"not null;default:0" json:"hours_computed"`
	Status        string    `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Allocation) TableName() string {
	return "allocations"
}

// EffectiveHours returns the hours that count against capacity: actual hours
// once the allocation is completed, planned hours otherwise.
func (a Allocation) EffectiveHours() float64 {
	if a.Status == AllocationCompleted && a.HoursActual > 0 {
		return a.HoursActual
	}
	return a.HoursAssigned
}

// IsValid checks the record before it is written.
func (a *Allocation) IsValid() bool {
	if a.EmployeeID == 0 || a.ProjectID == 0 || a.WeekStart == "" {
		return false
	}
	if a.HoursAssigned < 0 || a.HoursActual < 0 || a.HoursComputed < 0 {
		return false
	}
	switch a.Status {
	case AllocationPlanned, AllocationActive, AllocationCompleted:
		return true
	}
	return false
}
