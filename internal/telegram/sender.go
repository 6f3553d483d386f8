package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/config"
)

// DeliveryErrorKind classifies a failed send.
type DeliveryErrorKind int

const (
	DeliveryOther DeliveryErrorKind = iota
	DeliveryParseEntities
)

func (k DeliveryErrorKind) String() string {
	if k == DeliveryParseEntities {
		return "parse_entities"
	}
	return "other"
}

// DeliveryError is returned by Deliver when a message could not be sent.
type DeliveryError struct {
	Kind DeliveryErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver message (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ClassifySendError reports whether a send failed because Telegram could not
// parse the message entities.
func ClassifySendError(err error) DeliveryErrorKind {
	if err == nil {
		return DeliveryOther
	}
	if errors.Is(err, bot.ErrorBadRequest) && strings.Contains(strings.ToLower(err.Error()), "can't parse entities") {
		return DeliveryParseEntities
	}
	return DeliveryOther
}

// Deliver sends text to a chat, degrading formatting when Telegram rejects it.
// Each chunk is first sent as MarkdownV2 unchanged, then escaped up to
// config.DeliveryMaxRetries times while the failure is a parse error, and
// finally once as plain text. A failure that is not a parse error during the
// escaped attempts is returned immediately.
func Deliver(ctx context.Context, sender MessageSender, chatID int64, text string) error {
	for _, chunk := range SplitMessage(text, config.MaxTelegramMessageLen) {
		if err := deliverChunk(ctx, sender, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func deliverChunk(ctx context.Context, sender MessageSender, chatID int64, text string) error {
	err := send(ctx, sender, chatID, text, models.ParseModeMarkdown)
	if err == nil {
		return nil
	}
	slog.Debug("markdown send failed, escaping", "chat_id", chatID, "error", err)

	escaped := EscapeMarkdownV2(text)
	for attempt := 1; attempt <= config.DeliveryMaxRetries; attempt++ {
		err = send(ctx, sender, chatID, escaped, models.ParseModeMarkdown)
		if err == nil {
			return nil
		}
		if ClassifySendError(err) != DeliveryParseEntities {
			return &DeliveryError{Kind: DeliveryOther, Err: err}
		}
		slog.Debug("escaped send failed", "chat_id", chatID, "attempt", attempt, "error", err)
	}

	slog.Warn("markdown delivery exhausted, sending plain text", "chat_id", chatID)
	if err := send(ctx, sender, chatID, text, ""); err != nil {
		return &DeliveryError{Kind: ClassifySendError(err), Err: err}
	}
	return nil
}

func send(ctx context.Context, sender MessageSender, chatID int64, text string, parseMode models.ParseMode) error {
	_, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	return err
}

// SendText sends a plain text reply with an optional reply markup.
func SendText(ctx context.Context, sender MessageSender, chatID int64, text string, markup models.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// ChatActionSender sends chat actions such as "typing".
type ChatActionSender interface {
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// StartTyping sends "typing..." action every 4 seconds until the returned cancel function is called.
func StartTyping(ctx context.Context, sender ChatActionSender, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		for {
			sender.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: chatID,
				Action: models.ChatActionTyping,
			})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return cancel
}
