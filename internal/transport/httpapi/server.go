// Package httpapi exposes load queries and edit-lock operations as JSON over
// HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"workload-planner/internal/editlock"
	"workload-planner/internal/service"
	"workload-planner/internal/workspace"
)

// Services are the record operations the API exposes next to load queries.
type Services struct {
	Allocations *service.AllocationService
	Absences    *service.AbsenceService
	Events      *service.TeamEventService
}

type Server struct {
	ws     *workspace.Workspace
	locks  *editlock.Coordinator
	svc    Services
	logger *logrus.Logger
	clock  func() time.Time
}

func NewServer(ws *workspace.Workspace, locks *editlock.Coordinator, svc Services, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{ws: ws, locks: locks, svc: svc, logger: logger, clock: time.Now}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.success(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", s.handleListEmployees)
		r.Get("/{employeeID}/load/week/{weekKey}", s.handleWeekLoad)
		r.Get("/{employeeID}/load/month/{year}/{month}", s.handleMonthLoad)
		r.Get("/{employeeID}/allocations", s.handleEmployeeAllocations)
		r.Get("/{employeeID}/absences", s.handleListAbsences)
		r.Post("/{employeeID}/absences", s.handleAddAbsence)
		r.Delete("/{employeeID}/absences/{absenceID}", s.handleDeleteAbsence)
	})
	r.Get("/projects/{projectID}/allocations/{month}", s.handleProjectAllocations)
	r.Route("/allocations", func(r chi.Router) {
		r.Put("/", s.handleAssign)
		r.Post("/{allocationID}/complete", s.handleComplete)
		r.Delete("/{allocationID}", s.handleRemoveAllocation)
	})
	r.Route("/events", func(r chi.Router) {
		r.Post("/", s.handleAddEvent)
		r.Get("/{year}/{month}", s.handleListEvents)
		r.Delete("/{eventID}", s.handleDeleteEvent)
	})
	r.Get("/team/load/week/{weekKey}", s.handleTeamWeekLoad)
	r.Get("/team/load/month/{year}/{month}", s.handleTeamMonthLoad)

	r.Route("/locks", func(r chi.Router) {
		r.Get("/", s.handleListLocks)
		r.Post("/", s.handleAcquireLock)
		r.Post("/{projectID}/{month}/renew", s.handleRenewLock)
		r.Delete("/{projectID}/{month}", s.handleReleaseLock)
	})
	return r
}
