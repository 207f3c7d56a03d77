package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/service"
)

type assignRequest struct {
	EmployeeID uint    `json:"employee_id"`
	ProjectID  uint    `json:"project_id"`
	WeekKey    string  `json:"week_key"`
	Hours      float64 `json:"hours"`
}

type completeRequest struct {
	Hours float64 `json:"hours"`
}

type absenceRequest struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Type      string  `json:"type"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

type eventRequest struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	EmployeeIDs []uint  `json:"employee_ids"`
}

// failRecord maps service errors to responses.
func (s *Server) failRecord(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrAbsenceOverlap):
		s.fail(w, r, http.StatusConflict, "absence_overlap", err.Error())
	case errors.Is(err, service.ErrInvalidAllocation),
		errors.Is(err, service.ErrInvalidAbsence),
		errors.Is(err, service.ErrInvalidEvent):
		s.fail(w, r, http.StatusBadRequest, "invalid_record", err.Error())
	default:
		s.logger.WithError(err).Error("Record operation failed")
		s.fail(w, r, http.StatusInternalServerError, "store_unavailable", "could not complete the request")
	}
}

func (s *Server) handleEmployeeAllocations(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	allocations, err := s.svc.Allocations.EmployeeAllocations(r.Context(), employeeID)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	if allocations == nil {
		allocations = []models.Allocation{}
	}
	s.success(w, r, allocations)
}

func (s *Server) handleProjectAllocations(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(chi.URLParam(r, "projectID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_project", "project id must be a positive integer")
		return
	}
	month := chi.URLParam(r, "month")
	if _, _, err := capacity.ParseMonthKey(month); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_month", err.Error())
		return
	}
	allocations, err := s.svc.Allocations.ProjectMonth(r.Context(), projectID, month)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	if allocations == nil {
		allocations = []models.Allocation{}
	}
	s.success(w, r, allocations)
}

// handleAssign sets the planned hours of one slot. It does not take the edit
// lock; clients that edit a whole month should hold it themselves.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.EmployeeID == 0 || req.ProjectID == 0 {
		s.fail(w, r, http.StatusBadRequest, "invalid_record", "employee_id and project_id are required")
		return
	}
	allocation, err := s.svc.Allocations.Assign(r.Context(), req.EmployeeID, req.ProjectID, req.WeekKey, req.Hours)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	s.success(w, r, allocation)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "allocationID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_allocation", "allocation id must be a positive integer")
		return
	}
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	allocation, err := s.svc.Allocations.Complete(r.Context(), id, req.Hours)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	s.success(w, r, allocation)
}

func (s *Server) handleRemoveAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "allocationID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_allocation", "allocation id must be a positive integer")
		return
	}
	if err := s.svc.Allocations.Remove(r.Context(), id); err != nil {
		s.failRecord(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListAbsences lists an employee's absences, or with ?date= only the
// one covering that day.
func (s *Server) handleListAbsences(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := capacity.ParseDateKey(raw)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		current, err := s.svc.Absences.CurrentAbsence(r.Context(), employeeID, date)
		if err != nil {
			s.failRecord(w, r, err)
			return
		}
		absences := []models.Absence{}
		if current != nil {
			absences = append(absences, *current)
		}
		s.success(w, r, absences)
		return
	}

	absences, err := s.svc.Absences.EmployeeAbsences(r.Context(), employeeID)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	if absences == nil {
		absences = []models.Absence{}
	}
	s.success(w, r, absences)
}

func (s *Server) handleAddAbsence(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	var req absenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	start, err := capacity.ParseDateKey(req.StartDate)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	end, err := capacity.ParseDateKey(req.EndDate)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	absence, err := s.svc.Absences.AddAbsence(r.Context(), employeeID, start, end, req.Type, req.Hours, req.Notes)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	s.created(w, r, absence)
}

func (s *Server) handleDeleteAbsence(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := parseID(chi.URLParam(r, "employeeID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee id must be a positive integer")
		return
	}
	id, ok := parseID(chi.URLParam(r, "absenceID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_absence", "absence id must be a positive integer")
		return
	}
	if err := s.svc.Absences.DeleteAbsence(r.Context(), employeeID, id); err != nil {
		s.failRecord(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	date, err := capacity.ParseDateKey(req.Date)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	event, err := s.svc.Events.AddEvent(r.Context(), req.Name, req.Kind, date, req.Hours, req.EmployeeIDs)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	s.created(w, r, event)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_month", "year and month (1-12) are required")
		return
	}
	events, err := s.svc.Events.EventsInMonth(r.Context(), year, month)
	if err != nil {
		s.failRecord(w, r, err)
		return
	}
	if events == nil {
		events = []models.TeamEvent{}
	}
	s.success(w, r, events)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "eventID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_event", "event id must be a positive integer")
		return
	}
	if err := s.svc.Events.DeleteEvent(r.Context(), id); err != nil {
		s.failRecord(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
