package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/service"
)

func (h *Handler) handleSetKey(ctx context.Context, msg *models.Message) {
	h.conversations.Set(msg.Chat.ID, domain.AwaitingCredential)
	h.reply(ctx, msg.Chat.ID, msgCredentialPrompt)
}

// handleCredentialText validates and stores the key the user just sent.
// The candidate is never logged.
func (h *Handler) handleCredentialText(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	log := middleware.Logger(ctx)

	h.conversations.Reset(chatID)

	candidate := strings.TrimSpace(msg.Text)
	if candidate == "" {
		h.reply(ctx, chatID, msgCredentialEmpty)
		return
	}

	valid, err := h.credentials.Validate(ctx, candidate)
	if err != nil {
		log.Warn("credential check failed", "kind", domain.KindOf(err), "error", err)
		h.reply(ctx, chatID, msgCredentialCheck)
		return
	}
	if !valid {
		log.Info("credential rejected")
		h.reply(ctx, chatID, msgCredentialInvalid)
		return
	}

	if err := h.credentials.Save(ctx, userID, candidate); err != nil {
		h.replyError(ctx, chatID, "save credential", err)
		return
	}

	log.Info("credential saved")
	h.tgLogger.LogCredentialSet(service.HashUserID(userID))
	h.reply(ctx, chatID, msgCredentialSaved)
}
