package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"workload-planner/internal/capacity"
)

type weekLoadResponse struct {
	EmployeeID uint                `json:"employee_id"`
	WeekKey    string              `json:"week_key"`
	Load       capacity.LoadResult `json:"load"`
}

type bucketLoad struct {
	Key   string              `json:"key"`
	Start string              `json:"start"`
	End   string              `json:"end"`
	Load  capacity.LoadResult `json:"load"`
}

type monthLoadResponse struct {
	EmployeeID uint                `json:"employee_id"`
	Month      string              `json:"month"`
	Load       capacity.LoadResult `json:"load"`
	Weeks      []bucketLoad        `json:"weeks"`
}

type teamMember struct {
	EmployeeID uint                `json:"employee_id"`
	Name       string              `json:"name"`
	Load       capacity.LoadResult `json:"load"`
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	s.success(w, r, s.ws.Employees())
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseYearMonth(r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// handleWeekLoad serves one week bucket. Optional start and end query
// parameters clip the bucket to a partial range.
func (s *Server) handleWeekLoad(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	weekKey := chi.URLParam(r, "weekKey")
	weekDay, err := capacity.ParseDateKey(weekKey)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_week", err.Error())
		return
	}

	var clip *capacity.DateRange
	startRaw, endRaw := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if startRaw != "" || endRaw != "" {
		start, err := capacity.ParseDateKey(startRaw)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		end, err := capacity.ParseDateKey(endRaw)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		rng := capacity.NewDateRange(start, end)
		week := capacity.WeekRange(capacity.StartOfWeek(weekDay))
		if rng.End.Before(rng.Start) || !week.Contains(rng.Start) || !week.Contains(rng.End) {
			s.fail(w, r, http.StatusBadRequest, "invalid_range", "start and end must lie in the week of "+weekKey)
			return
		}
		clip = &rng
	}

	load := s.ws.Engine().LoadForWeek(employeeID, weekKey, clip)
	s.success(w, r, weekLoadResponse{EmployeeID: employeeID, WeekKey: weekKey, Load: load})
}

func (s *Server) handleMonthLoad(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	year, month, ok := parseYearMonth(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_month", "year and month (1-12) are required")
		return
	}

	engine := s.ws.Engine()
	resp := monthLoadResponse{
		EmployeeID: employeeID,
		Month:      capacity.MonthKey(year, month),
		Load:       engine.LoadForMonth(employeeID, year, month),
	}
	for _, wl := range engine.LoadForMonthWeeks(employeeID, year, month) {
		resp.Weeks = append(resp.Weeks, bucketLoad{
			Key:   wl.Bucket.Key,
			Start: capacity.DateKey(wl.Bucket.EffectiveStart),
			End:   capacity.DateKey(wl.Bucket.EffectiveEnd),
			Load:  wl.Load,
		})
	}
	s.success(w, r, resp)
}

func (s *Server) handleTeamWeekLoad(w http.ResponseWriter, r *http.Request) {
	weekKey := chi.URLParam(r, "weekKey")
	if _, err := capacity.ParseDateKey(weekKey); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_week", err.Error())
		return
	}
	s.success(w, r, teamResponse(s.ws.Engine().TeamLoadForWeek(weekKey)))
}

func (s *Server) handleTeamMonthLoad(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_month", "year and month (1-12) are required")
		return
	}
	s.success(w, r, teamResponse(s.ws.Engine().TeamLoadForMonth(year, month)))
}

func teamResponse(loads []capacity.EmployeeLoad) []teamMember {
	out := make([]teamMember, 0, len(loads))
	for _, el := range loads {
		out = append(out, teamMember{EmployeeID: el.Employee.ID, Name: el.Employee.Name, Load: el.Load})
	}
	return out
}
