package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/service"
)

func (h *Handler) showAbsences(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	ctx := context.Background()
	absences, err := h.deps.Absences.EmployeeAbsences(ctx, employee.ID)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list absences")
		h.reply(chatID, "❌ Could not load your absences.")
		return
	}
	if len(absences) == 0 {
		h.reply(chatID, "You have no absences recorded.")
		return
	}

	var b strings.Builder
	if current, err := h.deps.Absences.CurrentAbsence(ctx, employee.ID, h.deps.Clock()); err == nil && current != nil {
		fmt.Fprintf(&b, "🏖️ Away today (%s until %s)\n\n", current.Type, capacity.DateKey(current.EndDate))
	}
	b.WriteString("Your absences:\n")
	for _, a := range absences {
		fmt.Fprintf(&b, "#%d %s: %s to %s", a.ID, a.Type, capacity.DateKey(a.StartDate), capacity.DateKey(a.EndDate))
		if !a.IsFullDay() {
			fmt.Fprintf(&b, ", %.2f h per day", a.Hours)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use /delabsence id to remove one.")
	h.reply(chatID, b.String())
}

func (h *Handler) deleteAbsence(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Usage: /delabsence absence_id")
		return
	}
	err = h.deps.Absences.DeleteAbsence(context.Background(), employee.ID, uint(id))
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.reply(chatID, "❌ Absence not found")
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to delete absence")
		h.reply(chatID, "❌ Could not delete the absence.")
	default:
		h.reply(chatID, fmt.Sprintf("🗑️ Absence #%d removed.", id))
	}
}

// addEvent handles "/event date hours name... [ids=1,2]". Without ids the
// event applies to everyone.
func (h *Handler) addEvent(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	parts := strings.Fields(args)
	if len(parts) < 3 {
		h.reply(chatID, "❌ Usage: /event date hours name [ids=1,2]")
		return
	}
	date, err := parseDate(parts[0], h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	hours, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		h.reply(chatID, "❌ Hours must be a number")
		return
	}
	nameParts := parts[2:]
	var affected []uint
	if last := nameParts[len(nameParts)-1]; strings.HasPrefix(last, "ids=") {
		if affected, err = parseIDs(strings.TrimPrefix(last, "ids=")); err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
		nameParts = nameParts[:len(nameParts)-1]
	}

	event, err := h.deps.Events.AddEvent(context.Background(), strings.Join(nameParts, " "), models.EventKindOther, date, hours, affected)
	switch {
	case errors.Is(err, service.ErrInvalidEvent):
		h.reply(chatID, "❌ Invalid event. It needs a name and 0-24 hours.")
		return
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to add team event")
		h.reply(chatID, "❌ Could not save the event.")
		return
	}
	who := "everyone"
	if !event.IsGlobal() {
		who = fmt.Sprintf("%d employee(s)", len(event.AffectedEmployeeIDs))
	}
	h.reply(chatID, fmt.Sprintf("✅ %s on %s: %.2f h off for %s",
		event.Name, capacity.DateKey(event.Date), event.HoursReduction, who))
}

func parseIDs(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid employee id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (h *Handler) showEvents(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	month, err := monthArg(args, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	year, m, _ := capacity.ParseMonthKey(month)
	events, err := h.deps.Events.EventsInMonth(context.Background(), year, m)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list team events")
		h.reply(chatID, "❌ Could not load team events.")
		return
	}
	if len(events) == 0 {
		h.reply(chatID, fmt.Sprintf("No team events in %s.", month))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Team events in %s:\n", month)
	for _, e := range events {
		fmt.Fprintf(&b, "#%d %s %s (%s): %.2f h", e.ID, capacity.DateKey(e.Date), e.Name, e.Kind, e.HoursReduction)
		if !e.IsGlobal() {
			names := make([]string, 0, len(e.AffectedEmployeeIDs))
			for _, id := range e.AffectedEmployeeIDs {
				names = append(names, h.employeeName(id))
			}
			fmt.Fprintf(&b, ", for %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
	h.reply(chatID, b.String())
}

func (h *Handler) deleteEvent(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Usage: /delevent event_id")
		return
	}
	err = h.deps.Events.DeleteEvent(context.Background(), uint(id))
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.reply(chatID, "❌ Event not found")
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to delete team event")
		h.reply(chatID, "❌ Could not delete the event.")
	default:
		h.reply(chatID, fmt.Sprintf("🗑️ Event #%d removed.", id))
	}
}
