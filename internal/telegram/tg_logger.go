package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/gembot/internal/config"
)

// LogType selects the forum topic of the admin log chat.
type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
)

// TelegramLogger mirrors notable events to an admin chat. A zero chat id
// disables it. Messages never contain credentials or raw user ids.
type TelegramLogger struct {
	sender MessageSender
	chatID int64
	topics map[LogType]int
}

func NewTelegramLogger(sender MessageSender, chatID int64, errorTopic, registrationTopic int) *TelegramLogger {
	return &TelegramLogger{
		sender: sender,
		chatID: chatID,
		topics: map[LogType]int{
			LogTypeError:        errorTopic,
			LogTypeRegistration: registrationTopic,
		},
	}
}

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.chatID == 0 {
		return
	}

	// Truncate if too long
	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            message,
		MessageThreadID: l.topics[logType],
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	l.Log(LogTypeError, fmt.Sprintf("Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05")))
}

// LogCredentialSet records that a user stored a credential. Only a prefix of
// the user hash is included.
func (l *TelegramLogger) LogCredentialSet(userHash string) {
	if len(userHash) > 12 {
		userHash = userHash[:12]
	}
	l.Log(LogTypeRegistration, fmt.Sprintf("API key saved\n\nUser: %s\nTime: %s",
		userHash, time.Now().Format("2006-01-02 15:04:05")))
}
