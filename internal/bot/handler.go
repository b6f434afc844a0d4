package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/atopos-hq/chatcore/internal/config"
	"github.com/atopos-hq/chatcore/internal/service"
	"github.com/atopos-hq/chatcore/internal/workflow"
)

// Handler wires inbound Telegram messages to the chat-history store and the
// workflow executor.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	history     *service.ChatHistoryService
	workflows   *service.WorkflowService
	workflowDoc *workflow.Definition
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	History     *service.ChatHistoryService
	Workflows   *service.WorkflowService
	WorkflowDoc *workflow.Definition
	BotUsername string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		history:     deps.History,
		workflows:   deps.Workflows,
		workflowDoc: deps.WorkflowDoc,
		botUsername: deps.BotUsername,
	}
}

// Register attaches the text handler.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.handleText)
}

// handleText persists the inbound message, executes the configured workflow
// for a reply, persists the reply and sends it back. Every chat maps to one
// session keyed by its chat id.
func (h *Handler) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	msg := update.Message
	sessionID := strconv.FormatInt(msg.Chat.ID, 10)

	if _, err := h.history.Create(ctx, h.botUsername, sessionID, true, msg.Text); err != nil {
		slog.Error("store user message", "error", err, "session_id", sessionID)
		return
	}

	output := h.workflows.Execute(ctx, h.workflowDoc, nil, service.WorkflowInput{
		Text:          msg.Text,
		ServerBaseURL: h.cfg.WorkflowBaseURL,
	}, "telegram")

	reply := output.Response
	if output.Error != nil {
		reply = "Something went wrong, please try again later."
	}

	if _, err := h.history.Create(ctx, h.botUsername, sessionID, false, reply); err != nil {
		slog.Error("store bot message", "error", err, "session_id", sessionID)
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   reply,
	}); err != nil {
		slog.Error("send reply", "error", err, "chat_id", msg.Chat.ID)
	}
}
