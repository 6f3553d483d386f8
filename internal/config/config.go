package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	EncryptionKey string `env:"ENCRYPTION_KEY,required,notEmpty"`

	// Salt for deriving the credential encryption key. Changing it makes
	// previously stored credentials unreadable.
	EncryptionSalt string `env:"ENCRYPTION_SALT" envDefault:"gembot-credentials"`

	// Gemini
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-002"`

	// Persona for free chat. Media analysis ignores it.
	SystemInstruction string `env:"SYSTEM_INSTRUCTION" envDefault:"You are a friendly and capable AI assistant chatting in Telegram. Answer the way a thoughtful adult would: warm and conversational, never childish. Structure longer answers clearly and use emoji sparingly to keep them readable."`

	// Admin
	AdminIDs     []int64 `env:"ADMIN_IDS" envSeparator:","`
	StatsCommand string  `env:"STATS_COMMAND" envDefault:"/stats"`

	// Conversation limits
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"5"`
	HistoryMaxTurns    int `env:"HISTORY_MAX_TURNS" envDefault:"40"`

	// Tutorial message copied on /help
	HelpChannelID int64 `env:"HELP_CHANNEL_ID"`
	HelpMessageID int   `env:"HELP_MESSAGE_ID"`

	// Server
	Port int `env:"PORT" envDefault:"3000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	Workers            int  `env:"BOT_WORKERS" envDefault:"4"`

	// Telegram logging
	LogTelegramChatID    int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int   `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int   `env:"LOG_TOPIC_REGISTRATION"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.HistoryMaxTurns < 2 {
		return fmt.Errorf("HISTORY_MAX_TURNS must be at least 2, got %d", c.HistoryMaxTurns)
	}
	if !strings.HasPrefix(c.StatsCommand, "/") {
		return fmt.Errorf("STATS_COMMAND must start with '/', got %q", c.StatsCommand)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
