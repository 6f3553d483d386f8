package handler

import (
	"context"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/middleware"
)

// Register routes every message update to Dispatch.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, h.Dispatch)
}

// Dispatch handles one message: commands first, then uploads, then plain
// text routed by the chat's current mode.
func (h *Handler) Dispatch(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/"):
		h.handleCommand(ctx, msg)
	case hasUpload(msg):
		h.handleUpload(ctx, msg)
	case msg.Text != "":
		h.handleText(ctx, msg)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *models.Message) {
	name, args, ok := h.parseCommand(msg.Text)
	if !ok {
		return
	}

	switch name {
	case "/start":
		if args != "" {
			return
		}
		h.handleStart(ctx, msg)
	case "/help":
		h.handleHelp(ctx, msg)
	case "/startchat":
		h.handleStartChat(ctx, msg)
	case "/endchat":
		h.handleEndChat(ctx, msg)
	case "/imageanalyze":
		h.handleAnalyzeCommand(ctx, msg, domain.MediaImage)
	case "/audioanalyze":
		h.handleAnalyzeCommand(ctx, msg, domain.MediaAudio)
	case "/pdfanalyze":
		h.handleAnalyzeCommand(ctx, msg, domain.MediaPDF)
	case "/videoanalyze":
		h.handleAnalyzeCommand(ctx, msg, domain.MediaVideo)
	case "/setkey":
		h.handleSetKey(ctx, msg)
	case h.cfg.StatsCommand:
		h.handleStats(ctx, msg)
	default:
		middleware.Logger(ctx).Debug("unknown command ignored", "command", name)
	}
}

// parseCommand splits "/cmd@BotName args" into its name and arguments.
// Commands addressed to another bot are rejected.
func (h *Handler) parseCommand(text string) (name, args string, ok bool) {
	name = text
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], strings.TrimSpace(text[i:])
	}

	if at := strings.IndexByte(name, '@'); at >= 0 {
		if h.botUsername != "" && !strings.EqualFold(name[at+1:], h.botUsername) {
			return "", "", false
		}
		name = name[:at]
	}
	return name, args, true
}

func (h *Handler) handleText(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	mode := h.conversations.Get(chatID)

	switch mode.Kind {
	case domain.ModeAwaitingCredential:
		h.handleCredentialText(ctx, msg)
	case domain.ModeAwaitingDescription:
		h.handleDescription(ctx, msg, *mode.Media)
	case domain.ModeActiveChat:
		h.handleChatText(ctx, msg)
	default:
		h.reply(ctx, chatID, capabilityMenu)
	}
}
