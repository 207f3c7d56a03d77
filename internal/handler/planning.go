package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"workload-planner/internal/models"
	"workload-planner/internal/service"
)

func (h *Handler) showMyAllocations(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	allocations, err := h.deps.Allocations.EmployeeAllocations(context.Background(), employee.ID)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list allocations")
		h.reply(chatID, "❌ Could not load your allocations.")
		return
	}
	if len(allocations) == 0 {
		h.reply(chatID, "You have no allocations.")
		return
	}
	var b strings.Builder
	b.WriteString("📋 Your allocations:\n")
	for _, a := range allocations {
		writeAllocation(&b, a, h.projectName(a.ProjectID))
	}
	b.WriteString("Use /complete id hours to record actual hours.")
	h.reply(chatID, b.String())
}

func (h *Handler) showProjectPlan(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	parts := strings.Fields(args)
	if len(parts) < 1 || len(parts) > 2 {
		h.reply(chatID, "❌ Usage: /plan project_id [YYYY-MM]")
		return
	}
	projectID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Project id must be a number")
		return
	}
	monthRaw := ""
	if len(parts) == 2 {
		monthRaw = parts[1]
	}
	month, err := monthArg(monthRaw, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	allocations, err := h.deps.Allocations.ProjectMonth(context.Background(), uint(projectID), month)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list project allocations")
		h.reply(chatID, "❌ Could not load the plan.")
		return
	}
	name := h.projectName(uint(projectID))
	if len(allocations) == 0 {
		h.reply(chatID, fmt.Sprintf("Nothing is planned for %s in %s.", name, month))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s, %s:\n", name, month)
	for _, a := range allocations {
		writeAllocation(&b, a, h.employeeName(a.EmployeeID))
	}
	h.reply(chatID, b.String())
}

func writeAllocation(b *strings.Builder, a models.Allocation, who string) {
	fmt.Fprintf(b, "#%d %s, week %s: %.2f h", a.ID, who, a.WeekStart, a.HoursAssigned)
	if a.Status == models.AllocationCompleted {
		fmt.Fprintf(b, ", done in %.2f h", a.HoursActual)
	}
	b.WriteString("\n")
}

func (h *Handler) completeAllocation(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Usage: /complete allocation_id hours")
		return
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Allocation id must be a number")
		return
	}
	hours, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		h.reply(chatID, "❌ Hours must be a number")
		return
	}

	allocation, err := h.deps.Allocations.Complete(context.Background(), uint(id), hours)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.reply(chatID, "❌ Allocation not found")
	case errors.Is(err, service.ErrInvalidAllocation):
		h.reply(chatID, "❌ Hours must not be negative.")
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to complete allocation")
		h.reply(chatID, "❌ Could not complete the allocation.")
	default:
		h.reply(chatID, fmt.Sprintf("✅ #%d completed with %.2f h (planned %.2f h).",
			allocation.ID, allocation.HoursActual, allocation.HoursAssigned))
	}
}

func (h *Handler) removeAllocation(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Usage: /unassign allocation_id")
		return
	}
	err = h.deps.Allocations.Remove(context.Background(), uint(id))
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.reply(chatID, "❌ Allocation not found")
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to remove allocation")
		h.reply(chatID, "❌ Could not remove the allocation.")
	default:
		h.reply(chatID, fmt.Sprintf("🗑️ Allocation #%d removed.", id))
	}
}
