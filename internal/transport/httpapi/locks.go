package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"workload-planner/internal/capacity"
	"workload-planner/internal/editlock"
	"workload-planner/internal/models"
)

type lockRequest struct {
	ProjectID  uint   `json:"project_id"`
	Month      string `json:"month"`
	EmployeeID uint   `json:"employee_id"`
}

type renewRequest struct {
	EmployeeID uint `json:"employee_id"`
}

type leaseResponse struct {
	ProjectID  uint       `json:"project_id"`
	Month      string     `json:"month"`
	EmployeeID uint       `json:"employee_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Degraded   bool       `json:"degraded"`
}

func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, _, err := capacity.ParseMonthKey(month); err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid_month", err.Error())
			return
		}
	}
	locks, err := s.locks.LiveLocks(r.Context(), month)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list edit locks")
		s.fail(w, r, http.StatusInternalServerError, "store_unavailable", "could not list edit locks")
		return
	}
	if locks == nil {
		locks = []models.EditLock{}
	}
	s.success(w, r, locks)
}

// handleAcquireLock takes a lock for a stateless client, which must renew it
// itself before the TTL runs out.
func (s *Server) handleAcquireLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.ProjectID == 0 || req.EmployeeID == 0 {
		s.fail(w, r, http.StatusBadRequest, "invalid_lock", "project_id and employee_id are required")
		return
	}
	if _, _, err := capacity.ParseMonthKey(req.Month); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid_month", err.Error())
		return
	}

	lease, err := s.locks.Acquire(r.Context(), req.ProjectID, req.Month, req.EmployeeID)
	if holder, held := editlock.IsHeld(err); held {
		s.writeJSON(w, http.StatusConflict, Envelope{
			Success:   false,
			Data:      holder,
			Error:     &Error{Code: "lock_held", Message: err.Error()},
			RequestID: middleware.GetReqID(r.Context()),
		})
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "lock_failed", err.Error())
		return
	}

	resp := leaseResponse{
		ProjectID:  lease.ProjectID,
		Month:      lease.Month,
		EmployeeID: lease.EmployeeID,
		Degraded:   lease.Degraded(),
	}
	if !lease.Degraded() {
		at := lease.ExpiresAt()
		resp.ExpiresAt = &at
	}
	s.created(w, r, resp)
}

func (s *Server) handleRenewLock(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(chi.URLParam(r, "projectID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_project", "project id must be a positive integer")
		return
	}
	month := chi.URLParam(r, "month")
	var req renewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmployeeID == 0 {
		s.fail(w, r, http.StatusBadRequest, "invalid_body", "employee_id is required")
		return
	}

	expiresAt, err := s.locks.Renew(r.Context(), projectID, month, req.EmployeeID)
	if errors.Is(err, editlock.ErrNotHeld) {
		s.fail(w, r, http.StatusConflict, "lock_lost", "the lock is no longer held by this employee")
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to renew edit lock")
		s.fail(w, r, http.StatusServiceUnavailable, "store_unavailable", "could not renew the lock")
		return
	}
	s.success(w, r, leaseResponse{ProjectID: projectID, Month: month, EmployeeID: req.EmployeeID, ExpiresAt: &expiresAt})
}

func (s *Server) handleReleaseLock(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(chi.URLParam(r, "projectID"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_project", "project id must be a positive integer")
		return
	}
	employeeID, ok := parseID(r.URL.Query().Get("employee"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid_employee", "employee query parameter is required")
		return
	}

	err := s.locks.Release(r.Context(), projectID, chi.URLParam(r, "month"), employeeID)
	if errors.Is(err, editlock.ErrNotHeld) {
		s.fail(w, r, http.StatusNotFound, "not_held", "no lock held by this employee")
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "release_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
