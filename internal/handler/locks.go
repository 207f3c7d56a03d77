package handler

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"workload-planner/internal/editlock"
	"workload-planner/internal/realtime"
)

func (h *Handler) employeeName(id uint) string {
	if e, ok := h.deps.Workspace.Employee(id); ok {
		return e.Name
	}
	return fmt.Sprintf("employee #%d", id)
}

func (h *Handler) projectName(id uint) string {
	p, err := h.deps.Projects.GetByID(context.Background(), id)
	if err != nil || p == nil {
		return fmt.Sprintf("Project #%d", id)
	}
	return p.Name
}

func (h *Handler) showLocks(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	month, err := monthArg(args, h.deps.Clock())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	locks, err := h.deps.Locks.LiveLocks(context.Background(), month)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list edit locks")
		h.reply(chatID, "❌ Could not load edit locks.")
		return
	}

	var viewer uint
	if employee, err := h.currentEmployee(chatID); err == nil {
		viewer = employee.ID
	}
	h.watchMonth(chatID, month, viewer)

	if len(locks) == 0 {
		h.reply(chatID, fmt.Sprintf("🔓 Nobody is editing %s.", month))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔒 Being edited in %s:\n", month)
	for _, l := range locks {
		fmt.Fprintf(&b, "%s: %s until %s\n",
			h.projectName(l.ProjectID), h.employeeName(l.EmployeeID), l.ExpiresAt.Local().Format("15:04"))
	}
	b.WriteString("You will be notified when this changes.")
	h.reply(chatID, b.String())
}

// watchMonth pushes lock changes of month to the chat until it watches
// another month or the bot stops.
func (h *Handler) watchMonth(chatID int64, month string, viewer uint) {
	h.mu.Lock()
	current := h.watches[chatID]
	if current != nil && current.month == month {
		h.mu.Unlock()
		return
	}
	delete(h.watches, chatID)
	h.mu.Unlock()
	if current != nil {
		current.unsub()
	}

	badges := editlock.NewBadges(h.employeeName, h.deps.Clock)
	if locks, err := h.deps.Locks.LiveLocks(context.Background(), month); err == nil {
		badges.Seed(locks)
	}
	w := &watch{month: month, badges: badges}
	w.unsub = h.deps.Locks.Watch(month, func(ev editlock.Event) {
		h.pushBadge(chatID, viewer, badges, ev)
	})

	h.mu.Lock()
	h.watches[chatID] = w
	h.mu.Unlock()
}

// pushBadge notifies about a new holder or a freed project. Renewals by the
// same holder stay quiet.
func (h *Handler) pushBadge(chatID int64, viewer uint, badges *editlock.Badges, ev editlock.Event) {
	prev, hadHolder := badges.Holder(ev.ProjectID)
	badges.Apply(ev)

	if ev.Op == realtime.OpDelete {
		if hadHolder && prev == ev.EmployeeID && prev != viewer {
			h.reply(chatID, fmt.Sprintf("🔓 %s (%s) is free to edit.", h.projectName(ev.ProjectID), ev.Month))
		}
		return
	}
	if hadHolder && prev == ev.EmployeeID {
		return
	}
	if label := badges.Label(ev.ProjectID, viewer); label != "" {
		h.reply(chatID, fmt.Sprintf("🔒 %s (%s) is %s.", h.projectName(ev.ProjectID), ev.Month, label))
	}
}
