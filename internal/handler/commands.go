package handler

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	args := message.CommandArguments()

	switch message.Command() {
	case "start", "help":
		h.sendHelpMessage(message)
	case "load":
		h.showWeekLoad(message, args)
	case "month":
		h.showMonthLoad(message, args)
	case "team":
		h.showTeamLoad(message, args)
	case "absence":
		h.addAbsence(message, args)
	case "absences":
		h.showAbsences(message)
	case "delabsence":
		h.deleteAbsence(message, args)
	case "event":
		h.addEvent(message, args)
	case "events":
		h.showEvents(message, args)
	case "delevent":
		h.deleteEvent(message, args)
	case "mine":
		h.showMyAllocations(message)
	case "plan":
		h.showProjectPlan(message, args)
	case "complete":
		h.completeAllocation(message, args)
	case "unassign":
		h.removeAllocation(message, args)
	case "edit":
		h.startEditing(message, args)
	case "assign":
		h.assignHours(message, args)
	case "save":
		h.saveEdits(message)
	case "done":
		h.finishEditing(message)
	case "cancel":
		h.cancelEditing(message)
	case "locks":
		h.showLocks(message, args)
	default:
		h.reply(message.Chat.ID, "❌ Unknown command. Use /help to see the available commands.")
	}
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := `📋 Commands:

📊 Load:
/load [date] - Your load for the week containing date
/month [YYYY-MM] - Your load for a month, week by week
/team [date] - Team load for a week

🏖️ Absences:
/absence start end [type] [hours] - Record an absence
    Example: /absence 14.10.2026 14.10.2026 vacation
    Example: /absence 2026-10-20 2026-10-21 personal 3
/absences - Your absences
/delabsence id - Remove one of your absences

📅 Team events:
/event date hours name [ids=1,2] - Record a team event
    Example: /event 2026-10-30 4 Offsite ids=2,3
/events [YYYY-MM] - Team events of a month
/delevent id - Remove a team event

✏️ Planning:
/edit project_id YYYY-MM - Start editing a project month
/assign employee_id week hours - Plan hours for a week bucket
    Example: /assign 2 2026-10-12 20
/save - Save now and keep editing
/done - Save and stop editing
/cancel - Stop editing without saving
/locks [YYYY-MM] - Who is editing what
/plan project_id [YYYY-MM] - A project's allocations for a month
/mine - Your allocations
/complete id hours - Record the actual hours of an allocation
/unassign id - Remove an allocation`
	h.reply(message.Chat.ID, text)
}
