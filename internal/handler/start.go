package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/telegram"
)

const apiKeyURL = "https://aistudio.google.com/app/apikey"

func (h *Handler) handleStart(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	log := middleware.Logger(ctx)

	h.conversations.Reset(chatID)

	if err := h.credentials.RecordStart(ctx, userID); err != nil {
		log.Warn("record start", "error", err)
	}

	has, err := h.credentials.Has(ctx, userID)
	if err != nil {
		log.Error("check credential", "error", err)
	}

	text := msgOnboarding
	if has {
		text = msgWelcomeBack
	}
	h.replyWithMarkup(ctx, chatID, text, telegram.CommandKeyboard())
}

func (h *Handler) handleHelp(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID

	h.conversations.Reset(chatID)

	h.replyWithMarkup(ctx, chatID, msgHelp, telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.URLButton("Get an API key", apiKeyURL)),
	))

	if h.cfg.HelpChannelID == 0 || h.cfg.HelpMessageID == 0 {
		return
	}
	_, err := h.client.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     chatID,
		FromChatID: h.cfg.HelpChannelID,
		MessageID:  h.cfg.HelpMessageID,
	})
	if err != nil {
		middleware.Logger(ctx).Error("copy help message", "error", err)
	}
}
