package handler

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"workload-planner/internal/editlock"
	"workload-planner/internal/realtime"
	"workload-planner/internal/repository"
	"workload-planner/internal/service"
	"workload-planner/internal/workspace"
)

// Sender delivers bot messages; *telegram.Client satisfies it.
type Sender interface {
	Send(msg tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Deps are the collaborators of the bot.
type Deps struct {
	Workspace     *workspace.Workspace
	Employees     repository.EmployeeRepository
	Projects      repository.ProjectRepository
	Locks         *editlock.Coordinator
	Capacity      *service.CapacityService
	Absences      *service.AbsenceService
	Allocations   *service.AllocationService
	Events        *service.TeamEventService
	AutosaveDelay time.Duration
	Logger        *logrus.Logger
	Clock         func() time.Time
}

type watch struct {
	month  string
	badges *editlock.Badges
	unsub  realtime.Unsubscribe
}

type Handler struct {
	bot  Sender
	deps Deps

	mu      sync.Mutex
	editors map[int64]*service.Editor
	watches map[int64]*watch
}

func NewHandler(bot Sender, deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Handler{
		bot:     bot,
		deps:    deps,
		editors: make(map[int64]*service.Editor),
		watches: make(map[int64]*watch),
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			continue
		}
		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	user := ""
	if message.From != nil {
		user = message.From.UserName
	}
	h.deps.Logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user":    user,
	}).Debug(message.Text)

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}
	h.reply(message.Chat.ID, "Use /help to see the available commands.")
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	h.bot.Send(msg)
}

// Close ends every editor session and watch, releasing their locks.
func (h *Handler) Close() {
	h.mu.Lock()
	editors := h.editors
	watches := h.watches
	h.editors = make(map[int64]*service.Editor)
	h.watches = make(map[int64]*watch)
	h.mu.Unlock()

	for _, e := range editors {
		e.Close()
	}
	for _, w := range watches {
		w.unsub()
	}
}
