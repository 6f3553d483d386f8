package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// MessageSender sends text messages.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Client is the part of the Bot API the assistant uses. *bot.Bot satisfies it.
type Client interface {
	MessageSender
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	CopyMessage(ctx context.Context, params *bot.CopyMessageParams) (*models.MessageID, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Throttled wraps a Client so outgoing messages respect the Bot API's global
// send rate.
type Throttled struct {
	Client
	limiter *rate.Limiter
}

func NewThrottled(client Client, perSecond float64, burst int) *Throttled {
	return &Throttled{
		Client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttled) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Client.SendMessage(ctx, params)
}

func (t *Throttled) CopyMessage(ctx context.Context, params *bot.CopyMessageParams) (*models.MessageID, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Client.CopyMessage(ctx, params)
}
