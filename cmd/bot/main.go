package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/handler"
	"github.com/set-night/gembot/internal/health"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/repository"
	"github.com/set-night/gembot/internal/service"
	"github.com/set-night/gembot/internal/telegram"
)

func main() {
	// Setup structured logging
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.SlogLevel())

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database and run migrations
	migrationsFS, err := fs.Sub(gembot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	store, err := repository.Open(ctx, cfg.DatabaseURL, migrationsFS)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize services
	cipher, err := service.NewCipher(cfg.EncryptionKey, cfg.EncryptionSalt)
	if err != nil {
		slog.Error("failed to create cipher", "error", err)
		os.Exit(1)
	}
	gemini := service.NewGeminiService(cfg.GeminiModel, cfg.SystemInstruction)
	validationCache := service.NewValidationCache(config.ValidationCacheDuration)
	credentials := service.NewCredentialService(store, cipher, gemini, validationCache)
	rateLimiter := service.NewRateLimiter(cfg.RateLimitPerMinute, config.RateLimitWindow)
	fetcher := service.NewFetcher(&http.Client{Timeout: config.DownloadTimeout}, config.MaxDownloadBytes)
	serializer := middleware.NewChatSerializer()

	// Assigned once the bot exists; handlers only run after that.
	var tgLogger *telegram.TelegramLogger

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.ActorLoader(),
			middleware.Recover(func(ctx context.Context, err error) {
				tgLogger.LogError(err, "handler panic")
			}),
			middleware.Logging(),
			serializer.Middleware(),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
		bot.WithErrorsHandler(func(err error) {
			slog.Error("telegram polling error", "error", err)
		}),
		bot.WithWorkers(cfg.Workers),
		bot.WithSkipGetMe(),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info, waiting for Telegram to become reachable
	me, ok := waitForTelegram(ctx, b)
	if !ok {
		slog.Info("shutdown before telegram became reachable")
		return
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username, "admin_ids", cfg.AdminIDsString())

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	client := telegram.NewThrottled(b, config.SendRatePerSecond, config.SendBurst)
	tgLogger = telegram.NewTelegramLogger(client, cfg.LogTelegramChatID, cfg.LogTopicError, cfg.LogTopicRegistration)

	// Initialize handler
	h := handler.New(handler.Deps{
		Client:        client,
		Cfg:           cfg,
		Credentials:   credentials,
		Generator:     gemini,
		Fetcher:       fetcher,
		Conversations: service.NewConversationStore(),
		History:       service.NewHistoryStore(cfg.HistoryMaxTurns),
		RateLimiter:   rateLimiter,
		TgLogger:      tgLogger,
		BotUsername:   me.Username,
	})
	h.Register(b)

	// Evict expired validation results and rate windows
	go func() {
		ticker := time.NewTicker(config.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cached := validationCache.Prune()
				windows := rateLimiter.Prune()
				slog.Debug("cleanup", "validation_entries", cached, "rate_windows", windows)
			}
		}
	}()

	// Health endpoint
	go func() {
		if err := health.Serve(ctx, cfg.Port); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start bot, restarting polling if it stops while the process is running
	for {
		slog.Info("starting bot", "username", me.Username, "id", me.ID)
		b.Start(ctx)
		if ctx.Err() != nil {
			break
		}
		slog.Warn("polling stopped, restarting", "delay", config.ReconnectDelay)
		if !sleep(ctx, config.ReconnectDelay) {
			break
		}
	}

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

// waitForTelegram calls getMe until it succeeds or ctx is canceled.
func waitForTelegram(ctx context.Context, b *bot.Bot) (*models.User, bool) {
	for {
		me, err := b.GetMe(ctx)
		if err == nil {
			return me, true
		}
		slog.Error("failed to get bot info, retrying", "error", err, "delay", config.ReconnectDelay)
		if !sleep(ctx, config.ReconnectDelay) {
			return nil, false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
