package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"workload-planner/internal/capacity"
	"workload-planner/internal/editlock"
	"workload-planner/internal/service"
)

func (h *Handler) editor(chatID int64) *service.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.editors[chatID]
}

func (h *Handler) takeEditor(chatID int64) *service.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editors[chatID]
	delete(h.editors, chatID)
	return e
}

func (h *Handler) startEditing(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	employee, err := h.currentEmployee(chatID)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Usage: /edit project_id YYYY-MM")
		return
	}
	projectID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Project id must be a number")
		return
	}
	month, err := monthArg(parts[1], h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	ctx := context.Background()
	project, err := h.deps.Projects.GetByID(ctx, uint(projectID))
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to load project")
		h.reply(chatID, "❌ Could not load the project.")
		return
	}
	if project == nil {
		h.reply(chatID, "❌ Project not found")
		return
	}

	if previous := h.takeEditor(chatID); previous != nil {
		if err := previous.Commit(ctx); err != nil {
			h.deps.Logger.WithError(err).Warn("Failed to save previous editor")
		}
		previous.Close()
	}

	editor, err := service.OpenEditor(ctx, h.deps.Workspace, h.deps.Locks, project.ID, month, employee.ID, h.deps.AutosaveDelay, h.deps.Logger)
	if lock, held := editlock.IsHeld(err); held {
		h.reply(chatID, fmt.Sprintf("🔒 %s (%s) is being edited by %s until %s. Try again later.",
			project.Name, month, h.employeeName(lock.EmployeeID), lock.ExpiresAt.Local().Format("15:04")))
		h.watchMonth(chatID, month, employee.ID)
		return
	}
	if err != nil {
		h.deps.Logger.WithError(err).WithFields(logrus.Fields{
			"project_id": project.ID,
			"month":      month,
		}).Error("Failed to open editor")
		h.reply(chatID, "❌ Could not start editing.")
		return
	}

	editor.OnSaveError(func(err error) {
		h.reply(chatID, "⚠️ Autosave failed, your changes are kept: "+err.Error()+"\nUse /save to retry.")
	})
	h.mu.Lock()
	h.editors[chatID] = editor
	h.mu.Unlock()
	h.watchMonth(chatID, month, employee.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "✏️ Editing %s for %s.\n", project.Name, month)
	if editor.Degraded() {
		b.WriteString("⚠️ The edit lock could not be recorded; others will not see that you are editing.\n")
	}
	fmt.Fprintf(&b, "Weeks: %s\nUse /assign employee_id week hours, then /done.", strings.Join(editor.WeekKeys(), ", "))
	h.reply(chatID, b.String())
}

func (h *Handler) assignHours(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	editor := h.editor(chatID)
	if editor == nil {
		h.reply(chatID, "❌ Start with /edit project_id YYYY-MM")
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 3 {
		h.reply(chatID, "❌ Usage: /assign employee_id week hours")
		return
	}
	employeeID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Employee id must be a number")
		return
	}
	week, err := parseDate(parts[1], h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	hours, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		h.reply(chatID, "❌ Hours must be a number")
		return
	}

	err = editor.SetHours(uint(employeeID), capacity.DateKey(week), hours)
	switch {
	case errors.Is(err, service.ErrInvalidAllocation):
		h.reply(chatID, "❌ Week must be one of "+strings.Join(editor.WeekKeys(), ", ")+" and hours must not be negative.")
	case errors.Is(err, service.ErrNotEditing):
		h.takeEditor(chatID)
		editor.Close()
		h.reply(chatID, "⚠️ Your edit lock was lost. Use /edit to start again.")
	case err != nil:
		h.reply(chatID, "❌ "+err.Error())
	default:
		h.reply(chatID, fmt.Sprintf("📝 %s: %.2f h for %s (saves automatically)",
			h.employeeName(uint(employeeID)), capacity.Round2(hours), capacity.DateKey(week)))
	}
}

func (h *Handler) saveEdits(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	editor := h.editor(chatID)
	if editor == nil {
		h.reply(chatID, "Nothing is being edited.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := editor.Commit(ctx)
	switch {
	case errors.Is(err, service.ErrNotEditing):
		h.takeEditor(chatID)
		editor.Close()
		h.reply(chatID, "⚠️ Your edit lock was lost. Use /edit to start again.")
	case err != nil:
		h.deps.Logger.WithError(err).Error("Failed to save edits")
		h.reply(chatID, fmt.Sprintf("❌ %d change(s) could not be saved: %s\nUse /save to retry.", editor.Pending(), err.Error()))
	default:
		h.reply(chatID, "✅ Saved. Keep editing or use /done.")
	}
}

func (h *Handler) finishEditing(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	editor := h.takeEditor(chatID)
	if editor == nil {
		h.reply(chatID, "Nothing is being edited.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := editor.Commit(ctx)
	if err != nil && !errors.Is(err, service.ErrNotEditing) {
		h.mu.Lock()
		h.editors[chatID] = editor
		h.mu.Unlock()
		h.deps.Logger.WithError(err).Error("Failed to save edits")
		h.reply(chatID, "❌ Some changes could not be saved: "+err.Error()+"\nUse /done to retry or /cancel to drop them.")
		return
	}
	editor.Close()
	if err != nil {
		h.reply(chatID, "⚠️ Your edit lock was lost before saving. Use /edit to start again.")
		return
	}
	h.reply(chatID, "✅ Saved. Editing finished.")
}

func (h *Handler) cancelEditing(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	editor := h.takeEditor(chatID)
	if editor == nil {
		h.reply(chatID, "Nothing is being edited.")
		return
	}
	pending := editor.Pending()
	editor.Close()
	h.reply(chatID, fmt.Sprintf("Editing cancelled, %d unsaved change(s) dropped.", pending))
}
