package handler

import (
	"context"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/service"
	"github.com/set-night/gembot/internal/telegram"
)

// Credentials stores and validates the users' own API keys.
type Credentials interface {
	Get(ctx context.Context, userID int64) (string, error)
	Has(ctx context.Context, userID int64) (bool, error)
	Save(ctx context.Context, userID int64, credential string) error
	Validate(ctx context.Context, candidate string) (bool, error)
	RecordStart(ctx context.Context, userID int64) error
	Stats(ctx context.Context) (domain.UsageStats, error)
}

// Generator is the generative AI backend.
type Generator interface {
	Chat(ctx context.Context, apiKey string, history []domain.Turn, text string) (string, error)
	Analyze(ctx context.Context, apiKey string, media domain.MediaInput, prompt string) (string, error)
}

// Fetcher downloads files by URL.
type Fetcher interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}

// Handler holds all dependencies needed by the update handlers.
type Handler struct {
	client        telegram.Client
	cfg           *config.Config
	credentials   Credentials
	generator     Generator
	fetcher       Fetcher
	conversations *service.ConversationStore
	history       *service.HistoryStore
	limiter       *service.RateLimiter
	tgLogger      *telegram.TelegramLogger
	botUsername   string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Client        telegram.Client
	Cfg           *config.Config
	Credentials   Credentials
	Generator     Generator
	Fetcher       Fetcher
	Conversations *service.ConversationStore
	History       *service.HistoryStore
	RateLimiter   *service.RateLimiter
	TgLogger      *telegram.TelegramLogger
	BotUsername   string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		client:        deps.Client,
		cfg:           deps.Cfg,
		credentials:   deps.Credentials,
		generator:     deps.Generator,
		fetcher:       deps.Fetcher,
		conversations: deps.Conversations,
		history:       deps.History,
		limiter:       deps.RateLimiter,
		tgLogger:      deps.TgLogger,
		botUsername:   deps.BotUsername,
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	h.replyWithMarkup(ctx, chatID, text, nil)
}

func (h *Handler) replyWithMarkup(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := telegram.SendText(ctx, h.client, chatID, text, markup); err != nil {
		middleware.Logger(ctx).Error("send reply", "error", err)
	}
}

// deliver sends a model answer through the formatting fallback protocol.
func (h *Handler) deliver(ctx context.Context, chatID int64, text string) {
	if err := telegram.Deliver(ctx, h.client, chatID, text); err != nil {
		middleware.Logger(ctx).Error("deliver answer", "error", err)
		h.tgLogger.LogError(err, "deliver answer")
	}
}

// replyError logs a failed operation and tells the user what happened.
func (h *Handler) replyError(ctx context.Context, chatID int64, op string, err error) {
	kind := domain.KindOf(err)
	middleware.Logger(ctx).Error(op, "kind", kind, "error", err)
	if kind == domain.KindOther {
		h.tgLogger.LogError(err, op)
	}
	h.reply(ctx, chatID, errorMessage(err))
}
