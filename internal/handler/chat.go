package handler

import (
	"context"
	"errors"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/telegram"
)

func (h *Handler) handleStartChat(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID

	has, err := h.credentials.Has(ctx, msg.From.ID)
	if err != nil {
		h.conversations.Reset(chatID)
		h.replyError(ctx, chatID, "check credential", err)
		return
	}
	if !has {
		h.conversations.Reset(chatID)
		h.reply(ctx, chatID, msgCredentialRequired)
		return
	}

	if h.conversations.Get(chatID).Kind == domain.ModeActiveChat {
		h.reply(ctx, chatID, msgChatActive)
		return
	}

	h.conversations.Set(chatID, domain.ActiveChat)
	h.reply(ctx, chatID, msgChatStarted)

	h.chatTurn(ctx, msg, config.IntroPrompt)
}

func (h *Handler) handleEndChat(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID

	if h.conversations.Get(chatID).Kind != domain.ModeActiveChat {
		h.reply(ctx, chatID, msgNoActiveChat)
		return
	}

	h.conversations.Reset(chatID)
	h.reply(ctx, chatID, msgChatEnded)
}

// handleChatText answers a typed free chat message. Only typed messages count
// against the per-user rate limit.
func (h *Handler) handleChatText(ctx context.Context, msg *models.Message) {
	userID := msg.From.ID
	if !h.limiter.Allow(userID) {
		middleware.Logger(ctx).Info("free chat rate limited", "count", h.limiter.Count(userID))
		h.reply(ctx, msg.Chat.ID, msgSlowDown)
		return
	}
	h.chatTurn(ctx, msg, msg.Text)
}

// chatTurn sends text to the backend with the chat's history. The exchange is
// added to the history only when the backend answers. The mode stays active
// after a failed request.
func (h *Handler) chatTurn(ctx context.Context, msg *models.Message, text string) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	log := middleware.Logger(ctx)

	apiKey, err := h.credentials.Get(ctx, userID)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		h.conversations.Reset(chatID)
		h.reply(ctx, chatID, msgCredentialRequired)
		return
	}
	if err != nil {
		h.replyError(ctx, chatID, "load credential", err)
		return
	}

	stopTyping := telegram.StartTyping(ctx, h.client, chatID)
	reqCtx, cancel := context.WithTimeout(ctx, config.ChatRequestTimeout)
	answer, err := h.generator.Chat(reqCtx, apiKey, h.history.Get(chatID), text)
	cancel()
	stopTyping()

	if err != nil {
		h.replyError(ctx, chatID, "free chat", err)
		return
	}

	h.history.Append(chatID, text, answer)
	log.Debug("free chat answered", "history_turns", h.history.Len(chatID))

	h.deliver(ctx, chatID, answer)
}
