package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/repository"
	"workload-planner/pkg/holidays"
)

type TeamEventService struct {
	repo   repository.TeamEventRepository
	logger *logrus.Logger
}

func NewTeamEventService(repo repository.TeamEventRepository, logger *logrus.Logger) *TeamEventService {
	return &TeamEventService{repo: repo, logger: logger}
}

// AddEvent records a team event. An empty affected list means all staff.
func (s *TeamEventService) AddEvent(ctx context.Context, name, kind string, date time.Time, hours float64, affected []uint) (*models.TeamEvent, error) {
	if kind == "" {
		kind = models.EventKindOther
	}
	event := &models.TeamEvent{
		Name:                name,
		Kind:                kind,
		Date:                capacity.Day(date),
		HoursReduction:      capacity.Round2(hours),
		AffectedEmployeeIDs: affected,
	}
	if !event.IsValid() {
		return nil, ErrInvalidEvent
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create team event: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"id":   event.ID,
		"name": name,
		"date": capacity.DateKey(event.Date),
	}).Info("Team event added")
	return event, nil
}

// ImportCalendar loads a calendar file. Holidays are replaced wholesale;
// explicit events already present with the same name and date are kept.
func (s *TeamEventService) ImportCalendar(ctx context.Context, path string) (int, error) {
	entries, err := holidays.ParseFile(path)
	if err != nil {
		return 0, err
	}
	return s.importEntries(ctx, entries)
}

func (s *TeamEventService) importEntries(ctx context.Context, entries []holidays.Entry) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list team events: %w", err)
	}
	// Holidays are about to be replaced, so only other kinds count as present.
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.Kind != models.EventKindHoliday {
			seen[e.Name+"|"+capacity.DateKey(e.Date)] = true
		}
	}

	events := make([]models.TeamEvent, 0, len(entries))
	for _, entry := range entries {
		key := entry.Name + "|" + capacity.DateKey(entry.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		event := models.TeamEvent{
			Name:                entry.Name,
			Kind:                entry.Kind,
			Date:                capacity.Day(entry.Date),
			HoursReduction:      entry.Hours,
			AffectedEmployeeIDs: entry.Employees,
		}
		if !event.IsValid() {
			return 0, fmt.Errorf("%w: %s on %s", ErrInvalidEvent, entry.Name, capacity.DateKey(entry.Date))
		}
		events = append(events, event)
	}

	deleted, err := s.repo.ReplaceKind(ctx, models.EventKindHoliday, events)
	if err != nil {
		return 0, fmt.Errorf("save team events: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"count":   len(events),
		"deleted": deleted,
	}).Info("Calendar imported")
	return len(events), nil
}

// EventsInMonth lists the events dated in a month.
func (s *TeamEventService) EventsInMonth(ctx context.Context, year int, month time.Month) ([]models.TeamEvent, error) {
	r := capacity.MonthRange(year, month)
	return s.repo.ListInRange(ctx, r.Start, r.End)
}

func (s *TeamEventService) DeleteEvent(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete team event: %w", err)
	}
	return nil
}
