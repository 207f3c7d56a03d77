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

var errNoProfile = errors.New("no employee profile is linked to this chat")

func (h *Handler) currentEmployee(chatID int64) (*models.Employee, error) {
	employee, err := h.deps.Employees.GetByChatID(context.Background(), chatID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, errNoProfile
	}
	return employee, nil
}

func (h *Handler) showWeekLoad(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	day, err := dayArg(args, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	h.reply(chatID, h.deps.Capacity.WeekText(employee.ID, day))
}

func (h *Handler) showMonthLoad(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	month, err := monthArg(args, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	year, m, _ := capacity.ParseMonthKey(month)
	h.reply(chatID, h.deps.Capacity.MonthText(employee.ID, year, m))
}

func (h *Handler) showTeamLoad(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	day, err := dayArg(args, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	h.reply(chatID, h.deps.Capacity.TeamText(day))
}

func (h *Handler) addAbsence(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	parts := strings.Fields(args)
	if len(parts) < 2 || len(parts) > 4 {
		h.reply(chatID, "❌ Usage: /absence start end [type] [hours]")
		return
	}
	now := h.deps.Clock()
	start, err := parseDate(parts[0], now)
	if err != nil {
		h.reply(chatID, "❌ Start date: "+err.Error())
		return
	}
	end, err := parseDate(parts[1], now)
	if err != nil {
		h.reply(chatID, "❌ End date: "+err.Error())
		return
	}
	absenceType := models.AbsenceTypeVacation
	if len(parts) > 2 {
		absenceType = parts[2]
	}
	var hours float64
	if len(parts) > 3 {
		if hours, err = strconv.ParseFloat(parts[3], 64); err != nil {
			h.reply(chatID, "❌ Hours must be a number")
			return
		}
	}

	absence, err := h.deps.Absences.AddAbsence(context.Background(), employee.ID, start, end, absenceType, hours, "")
	switch {
	case errors.Is(err, service.ErrAbsenceOverlap):
		h.reply(chatID, "❌ That period overlaps an absence you already have.")
		return
	case errors.Is(err, service.ErrInvalidAbsence):
		h.reply(chatID, "❌ Invalid absence. Check the dates, the type (vacation, sick, personal, other) and hours (0-24).")
		return
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to add absence")
		h.reply(chatID, "❌ Could not save the absence.")
		return
	}

	length := "full day(s)"
	if !absence.IsFullDay() {
		length = fmt.Sprintf("%.2f h per day", absence.Hours)
	}
	h.reply(chatID, fmt.Sprintf("✅ %s recorded: %s to %s, %s",
		absence.Type, capacity.DateKey(absence.StartDate), capacity.DateKey(absence.EndDate), length))
}
