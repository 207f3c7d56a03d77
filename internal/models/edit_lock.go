package models

import "time"

// EditLock is an advisory lock on one project's month of hour assignments.
// Only one row may exist per (project_id, month).
type EditLock struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"not null;uniqueIndex:idx_edit_lock_project_month" json:"project_id"`
	Month      string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_edit_lock_project_month;index" json:"month"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	LockedAt   time.Time `gorm:"not null" json:"locked_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

func (EditLock) TableName() string {
	return "edit_locks"
}

// IsLive reports whether the lock has not expired at now.
func (l *EditLock) IsLive(now time.Time) bool {
	return l != nil && l.ExpiresAt.After(now)
}

// HeldBy reports whether the lock belongs to the employee.
func (l *EditLock) HeldBy(employeeID uint) bool {
	return l != nil && l.EmployeeID == employeeID
}
