package models

import (
	"time"

	"gorm.io/gorm"
)

// WeekSchedule holds the hours an employee owes on each weekday.
type WeekSchedule struct {
	Monday    float64 `gorm:"not null;default:0" json:"monday"`
	Tuesday   float64 `gorm:"not null;default:0" json:"tuesday"`
	Wednesday float64 `gorm:"not null;default:0" json:"wednesday"`
	Thursday  float64 `gorm:"not null;default:0" json:"thursday"`
	Friday    float64 `gorm:"not null;default:0" json:"friday"`
	Saturday  float64 `gorm:"not null;default:0" json:"saturday"`
	Sunday    float64 `gorm:"not null;default:0" json:"sunday"`
}

// StandardWeek is the Monday to Friday, eight hours a day schedule.
func StandardWeek() WeekSchedule {
	return WeekSchedule{Monday: 8, Tuesday: 8, Wednesday: 8, Thursday: 8, Friday: 8}
}

// HoursOn returns the scheduled hours for a weekday.
func (s WeekSchedule) HoursOn(day time.Weekday) float64 {
	switch day {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}

// Total returns the weekly sum of the schedule.
func (s WeekSchedule) Total() float64 {
	return s.Monday + s.Tuesday + s.Wednesday + s.Thursday + s.Friday + s.Saturday + s.Sunday
}

// IsValid checks every weekday is within 0..24 hours.
func (s WeekSchedule) IsValid() bool {
	for _, h := range []float64{s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday, s.Sunday} {
		if h < 0 || h > 24 {
			return false
		}
	}
	return true
}

type Employee struct {
	ID                    uint         `gorm:"primarykey" json:"id"`
	Name                  string       `gorm:"not null" json:"name"`
	Email                 string       `json:"email"`
	ChatID                int64        `gorm:"index" json:"chat_id"`
	Schedule              WeekSchedule `gorm:"embedded;embeddedPrefix:hours_" json:"schedule"`
	DefaultWeeklyCapacity float64      `gorm:"not null;default:0" json:"default_weekly_capacity"`
	Active                bool         `gorm:"not null" json:"active"`
	CreatedAt             time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// BeforeSave keeps the default weekly capacity equal to the schedule sum.
func (e *Employee) BeforeSave(*gorm.DB) error {
	e.DefaultWeeklyCapacity = e.Schedule.Total()
	return nil
}

// IsValid checks the record before it is written.
func (e *Employee) IsValid() bool {
	return e.Name != "" && e.Schedule.IsValid()
}
