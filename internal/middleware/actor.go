package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

type ctxKey string

var logger = slog.Default

const (
	ActorKey  ctxKey = "actor"
	LoggerKey ctxKey = "logger"
)

// Actor identifies who sent an update and where.
type Actor struct {
	RequestID string
	UserID    int64
	ChatID    int64
}

// GetActor extracts the actor from context.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ActorKey).(Actor)
	return a, ok
}

// Logger returns the request logger, or the default logger outside a request.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return logger()
}

// WithActor stores the actor and a logger annotated with it.
func WithActor(ctx context.Context, a Actor) context.Context {
	ctx = context.WithValue(ctx, ActorKey, a)
	return context.WithValue(ctx, LoggerKey, logger().With(
		"request_id", a.RequestID,
		"chat_id", a.ChatID,
		"user_id", a.UserID,
	))
}

// ActorFromUpdate returns the sender and chat of a message update.
func ActorFromUpdate(update *models.Update) (Actor, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return Actor{}, false
	}
	return Actor{UserID: msg.From.ID, ChatID: msg.Chat.ID}, true
}

// ActorLoader returns middleware that puts the actor and a request logger
// into the context.
func ActorLoader() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if a, ok := ActorFromUpdate(update); ok {
				a.RequestID = uuid.NewString()
				ctx = WithActor(ctx, a)
			}
			next(ctx, b, update)
		}
	}
}
