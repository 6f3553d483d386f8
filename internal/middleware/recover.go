package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PanicReporter receives a recovered panic after it has been logged.
type PanicReporter func(ctx context.Context, err error)

// Recover returns middleware that turns a handler panic into an error log
// entry and, when report is non-nil, forwards it to report.
func Recover(report PanicReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				Logger(ctx).Error("panic recovered in handler",
					"update_id", update.ID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				if report == nil {
					return
				}
				err := fmt.Errorf("panic in update %d: %v", update.ID, r)
				if a, ok := GetActor(ctx); ok {
					err = fmt.Errorf("panic in update %d (chat %d, request %s): %v", update.ID, a.ChatID, a.RequestID, r)
				}
				report(ctx, err)
			}()
			next(ctx, b, update)
		}
	}
}
