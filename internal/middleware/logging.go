package middleware

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			updateType := "unknown"
			switch {
			case update.Message != nil:
				updateType = "message"
			case update.EditedMessage != nil:
				updateType = "edited_message"
			case update.CallbackQuery != nil:
				updateType = "callback_query"
			}

			next(ctx, b, update)

			Logger(ctx).Debug("update processed",
				"type", updateType,
				"duration", time.Since(start),
			)
		}
	}
}
