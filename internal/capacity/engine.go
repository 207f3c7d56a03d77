package capacity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"workload-planner/internal/models"
)

// Status classifies a load figure.
type Status string

const (
	StatusEmpty    Status = "empty"
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusOverload Status = "overload"
)

const (
	// InfinitePercentage stands in for committed hours against zero capacity.
	InfinitePercentage = 999
	// HealthyLimit and WarningLimit are inclusive upper bounds in percent.
	HealthyLimit = 85
	WarningLimit = 100
)

// ReductionType tells what consumed capacity in a breakdown entry.
type ReductionType string

const (
	ReductionAbsence ReductionType = "absence"
	ReductionEvent   ReductionType = "event"
)

// Reduction is one line of the "what consumed the capacity" explanation.
type Reduction struct {
	Reason string        `json:"reason"`
	Hours  float64       `json:"hours"`
	Type   ReductionType `json:"type"`
}

// LoadResult is the load of one employee over one window.
type LoadResult struct {
	Hours        float64     `json:"hours"`
	Capacity     float64     `json:"capacity"`
	BaseCapacity float64     `json:"base_capacity"`
	Status       Status      `json:"status"`
	Percentage   float64     `json:"percentage"`
	Breakdown    []Reduction `json:"breakdown"`
}

// WeekLoad pairs a month's week bucket with its load.
type WeekLoad struct {
	Bucket WeekBucket
	Load   LoadResult
}

// EmployeeLoad pairs an employee with a load, for team dashboards.
type EmployeeLoad struct {
	Employee models.Employee
	Load     LoadResult
}

// Dataset is the set of records the engine computes over.
type Dataset struct {
	Employees   []models.Employee
	Allocations []models.Allocation
	Absences    []models.Absence
	Events      []models.TeamEvent
}

// Engine computes loads from a dataset snapshot. It keeps no state beyond the
// snapshot it was built from, so the same inputs always give the same result.
type Engine struct {
	employees   map[uint]models.Employee
	allocations map[uint][]models.Allocation
	absences    map[uint][]models.Absence
	events      []models.TeamEvent
}

// NewEngine indexes a dataset by employee.
func NewEngine(data Dataset) *Engine {
	e := &Engine{
		employees:   make(map[uint]models.Employee, len(data.Employees)),
		allocations: make(map[uint][]models.Allocation),
		absences:    make(map[uint][]models.Absence),
		events:      slices.Clone(data.Events),
	}
	for _, emp := range data.Employees {
		e.employees[emp.ID] = emp
	}
	for _, a := range data.Allocations {
		e.allocations[a.EmployeeID] = append(e.allocations[a.EmployeeID], a)
	}
	for _, a := range data.Absences {
		e.absences[a.EmployeeID] = append(e.absences[a.EmployeeID], a)
	}
	return e
}

// Employee looks up an employee in the snapshot.
func (e *Engine) Employee(id uint) (models.Employee, bool) {
	emp, ok := e.employees[id]
	return emp, ok
}

// CommittedHours sums the effective hours of an employee's allocations whose
// week key is one of keys.
func (e *Engine) CommittedHours(employeeID uint, keys ...string) float64 {
	var hours []float64
	for _, a := range e.allocations[employeeID] {
		if slices.Contains(keys, a.WeekStart) {
			hours = append(hours, a.EffectiveHours())
		}
	}
	return sumHours(hours...)
}

// LoadForWeek computes the load of one week bucket. When clip is nil the
// employee's default weekly capacity is the base and reductions cover the
// seven days from the key; otherwise the base is the scheduled hours of the
// clipped range.
func (e *Engine) LoadForWeek(employeeID uint, weekKey string, clip *DateRange) LoadResult {
	emp, ok := e.employees[employeeID]
	if !ok {
		return emptyResult()
	}
	var window DateRange
	var base float64
	if clip != nil {
		window = NewDateRange(clip.Start, clip.End)
		base = WorkingHoursInRange(window.Start, window.End, emp.Schedule)
	} else {
		start, err := ParseDateKey(weekKey)
		if err != nil {
			return emptyResult()
		}
		window = WeekRange(start)
		base = Round2(emp.DefaultWeeklyCapacity)
	}
	committed := e.CommittedHours(employeeID, weekKey)
	return e.reduce(emp, window, base, committed)
}

// LoadForCalendarWeek computes the load of the full Monday-start week that
// contains day. Hours filed under either month's bucket of a split week count.
func (e *Engine) LoadForCalendarWeek(employeeID uint, day time.Time) LoadResult {
	emp, ok := e.employees[employeeID]
	if !ok {
		return emptyResult()
	}
	ws := StartOfWeek(day)
	committed := e.CommittedHours(employeeID, WeekKeys(ws)...)
	return e.reduce(emp, WeekRange(ws), Round2(emp.DefaultWeeklyCapacity), committed)
}

// LoadForMonth computes the load of a whole month. Committed hours come from
// every week bucket whose storage key belongs to the month.
func (e *Engine) LoadForMonth(employeeID uint, year int, month time.Month) LoadResult {
	emp, ok := e.employees[employeeID]
	if !ok {
		return emptyResult()
	}
	window := MonthRange(year, month)
	base := MonthlyCapacity(year, month, emp.Schedule)
	committed := e.CommittedHours(employeeID, MonthKeys(year, month)...)
	return e.reduce(emp, window, base, committed)
}

// LoadForMonthWeeks computes the clipped load of every week bucket in a month.
func (e *Engine) LoadForMonthWeeks(employeeID uint, year int, month time.Month) []WeekLoad {
	buckets := WeeksForMonth(year, month)
	out := make([]WeekLoad, 0, len(buckets))
	for _, b := range buckets {
		var clip *DateRange
		if b.Clipped() {
			r := b.Range()
			clip = &r
		}
		out = append(out, WeekLoad{Bucket: b, Load: e.LoadForWeek(employeeID, b.Key, clip)})
	}
	return out
}

// TeamLoadForWeek returns the week load of every active employee, by name.
func (e *Engine) TeamLoadForWeek(weekKey string) []EmployeeLoad {
	return e.team(func(id uint) LoadResult { return e.LoadForWeek(id, weekKey, nil) })
}

// TeamLoadForCalendarWeek returns the calendar week load of every active
// employee, by name.
func (e *Engine) TeamLoadForCalendarWeek(day time.Time) []EmployeeLoad {
	return e.team(func(id uint) LoadResult { return e.LoadForCalendarWeek(id, day) })
}

// TeamLoadForMonth returns the month load of every active employee, by name.
func (e *Engine) TeamLoadForMonth(year int, month time.Month) []EmployeeLoad {
	return e.team(func(id uint) LoadResult { return e.LoadForMonth(id, year, month) })
}

func (e *Engine) team(load func(id uint) LoadResult) []EmployeeLoad {
	out := make([]EmployeeLoad, 0, len(e.employees))
	for id, emp := range e.employees {
		if !emp.Active {
			continue
		}
		out = append(out, EmployeeLoad{Employee: emp, Load: load(id)})
	}
	slices.SortFunc(out, func(a, b EmployeeLoad) int {
		if c := strings.Compare(a.Employee.Name, b.Employee.Name); c != 0 {
			return c
		}
		return int(a.Employee.ID) - int(b.Employee.ID)
	})
	return out
}

func (e *Engine) reduce(emp models.Employee, window DateRange, base, committed float64) LoadResult {
	absences := e.absences[emp.ID]
	var breakdown []Reduction

	remaining := clampZero(Round2(base))

	absenceDetails := AbsenceDetails(window.Start, window.End, absences, emp.Schedule)
	absenceLost := make([]float64, 0, len(absenceDetails))
	for _, d := range absenceDetails {
		absenceLost = append(absenceLost, d.Hours)
		breakdown = append(breakdown, Reduction{Reason: absenceReason(d), Hours: d.Hours, Type: ReductionAbsence})
	}
	remaining = clampZero(sumHours(remaining, -sumHours(absenceLost...)))

	eventDetails := TeamEventDetails(window.Start, window.End, emp.ID, e.events, emp.Schedule, absences)
	eventLost := make([]float64, 0, len(eventDetails))
	for _, d := range eventDetails {
		eventLost = append(eventLost, d.Hours)
		breakdown = append(breakdown, Reduction{Reason: eventReason(d), Hours: d.Hours, Type: ReductionEvent})
	}
	remaining = clampZero(sumHours(remaining, -sumHours(eventLost...)))

	percentage := Percentage(committed, remaining)
	return LoadResult{
		Hours:        committed,
		Capacity:     remaining,
		BaseCapacity: Round2(base),
		Status:       Classify(committed, remaining, percentage),
		Percentage:   percentage,
		Breakdown:    breakdown,
	}
}

// Percentage returns committed/capacity in percent, rounded to two decimals.
// Zero capacity yields InfinitePercentage when anything is committed.
func Percentage(committed, capacity float64) float64 {
	committed, capacity = Round2(committed), Round2(capacity)
	if capacity <= 0 {
		if committed > 0 {
			return InfinitePercentage
		}
		return 0
	}
	return Round2(committed / capacity * 100)
}

// Classify maps a load to its status. The order matters: nothing committed
// is empty even against zero capacity.
func Classify(committed, capacity, percentage float64) Status {
	switch {
	case Round2(committed) == 0:
		return StatusEmpty
	case Round2(capacity) == 0:
		return StatusOverload
	case Round2(percentage) <= HealthyLimit:
		return StatusHealthy
	case Round2(percentage) <= WarningLimit:
		return StatusWarning
	default:
		return StatusOverload
	}
}

func emptyResult() LoadResult {
	return LoadResult{Status: StatusEmpty}
}

func absenceReason(d AbsenceDetail) string {
	label := absenceLabel(d.Type)
	if d.Start.Equal(d.End) {
		return fmt.Sprintf("%s (%s)", label, d.Start.Format("Jan 2"))
	}
	return fmt.Sprintf("%s (%s – %s)", label, d.Start.Format("Jan 2"), d.End.Format("Jan 2"))
}

func absenceLabel(kind string) string {
	switch kind {
	case models.AbsenceTypeVacation:
		return "Vacation"
	case models.AbsenceTypeSick:
		return "Sick leave"
	case models.AbsenceTypePersonal:
		return "Personal time"
	default:
		return "Absence"
	}
}

func eventReason(d EventDetail) string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Date.Format("Jan 2"))
}
