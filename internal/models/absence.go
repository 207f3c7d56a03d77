package models

import "time"

// MaxAbsenceHoursPerDay caps a partial-day absence.
const MaxAbsenceHoursPerDay = 24

type Absence struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`
	Type       string    `gorm:"type:varchar(20);not null" json:"type"` // vacation, sick, personal, other
	// Hours is zero for full days off, otherwise the hours removed per day.
	Hours     float64   `gorm:"not null;default:0" json:"hours"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Absence) TableName() string {
	return "absences"
}

const (
	AbsenceTypeVacation = "vacation"
	AbsenceTypeSick     = "sick"
	AbsenceTypePersonal = "personal"
	AbsenceTypeOther    = "other"
)

// IsFullDay reports whether the absence removes whole scheduled days.
func (a Absence) IsFullDay() bool {
	return a.Hours == 0
}

// Covers reports whether the absence includes the given calendar day.
func (a Absence) Covers(day time.Time) bool {
	d := dayOf(day)
	return !d.Before(dayOf(a.StartDate)) && !d.After(dayOf(a.EndDate))
}

// IsValid checks the record before it is written.
func (a *Absence) IsValid() bool {
	if a.EmployeeID == 0 || a.StartDate.IsZero() || a.EndDate.IsZero() {
		return false
	}
	if dayOf(a.EndDate).Before(dayOf(a.StartDate)) {
		return false
	}
	if a.Hours < 0 || a.Hours > MaxAbsenceHoursPerDay {
		return false
	}
	switch a.Type {
	case AbsenceTypeVacation, AbsenceTypeSick, AbsenceTypePersonal, AbsenceTypeOther:
		return true
	}
	return false
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
