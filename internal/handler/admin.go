package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/middleware"
)

func (h *Handler) handleStats(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID

	if !h.cfg.IsAdmin(msg.From.ID) {
		middleware.Logger(ctx).Warn("stats requested by non admin")
		h.reply(ctx, chatID, msgAdminOnly)
		return
	}

	stats, err := h.credentials.Stats(ctx)
	if err != nil {
		h.replyError(ctx, chatID, "usage stats", err)
		return
	}

	latest := "never"
	if stats.LatestAt != nil {
		latest = stats.LatestAt.UTC().Format(time.DateTime) + " UTC"
	}

	h.reply(ctx, chatID, fmt.Sprintf(
		"📊 Usage statistics\n\n"+
			"Total events: %d\n"+
			"Unique users: %d\n"+
			"Latest activity: %s\n"+
			"Active conversations: %d",
		stats.TotalEvents, stats.UniqueUsers, latest, h.conversations.Active(),
	))
}
