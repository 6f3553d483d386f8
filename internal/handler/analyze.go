package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/middleware"
	"github.com/set-night/gembot/internal/service"
	"github.com/set-night/gembot/internal/telegram"
)

const pdfMIMEType = "application/pdf"

func (h *Handler) handleAnalyzeCommand(ctx context.Context, msg *models.Message, kind domain.MediaKind) {
	chatID := msg.Chat.ID

	h.conversations.Reset(chatID)

	has, err := h.credentials.Has(ctx, msg.From.ID)
	if err != nil {
		h.replyError(ctx, chatID, "check credential", err)
		return
	}
	if !has {
		h.reply(ctx, chatID, msgCredentialRequired)
		return
	}

	h.conversations.Set(chatID, domain.AwaitingUpload(kind))
	h.reply(ctx, chatID, askUploadMessage(kind))
}

// upload is a file attached to a message.
type upload struct {
	kind     domain.MediaKind
	fileID   string
	mimeType string
	document bool
}

func hasUpload(msg *models.Message) bool {
	_, ok := uploadOf(msg)
	return ok
}

func uploadOf(msg *models.Message) (upload, bool) {
	switch {
	case len(msg.Photo) > 0:
		return upload{kind: domain.MediaImage, fileID: largestPhoto(msg.Photo).FileID}, true
	case msg.Audio != nil:
		return upload{kind: domain.MediaAudio, fileID: msg.Audio.FileID, mimeType: msg.Audio.MimeType}, true
	case msg.Voice != nil:
		return upload{kind: domain.MediaAudio, fileID: msg.Voice.FileID, mimeType: msg.Voice.MimeType}, true
	case msg.Video != nil:
		return upload{kind: domain.MediaVideo, fileID: msg.Video.FileID, mimeType: msg.Video.MimeType}, true
	case msg.Document != nil:
		return upload{kind: domain.MediaPDF, fileID: msg.Document.FileID, mimeType: msg.Document.MimeType, document: true}, true
	}
	return upload{}, false
}

func largestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func (h *Handler) handleUpload(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	log := middleware.Logger(ctx)

	up, _ := uploadOf(msg)
	mode := h.conversations.Get(chatID)
	if !mode.AwaitsUpload(up.kind) {
		log.Debug("upload ignored", "kind", up.kind, "mode", mode)
		return
	}

	if up.document && up.mimeType != pdfMIMEType {
		log.Info("non pdf document rejected", "mime_type", up.mimeType)
		h.reply(ctx, chatID, msgNotPDF)
		return
	}

	fileURL, err := telegram.GetFileURL(ctx, h.client, up.fileID)
	if err != nil {
		log.Error("resolve file url", "kind", up.kind, "error", err)
		h.reply(ctx, chatID, msgFileNotFound)
		return
	}

	h.conversations.Set(chatID, domain.AwaitingDescription(up.kind, fileURL))
	h.reply(ctx, chatID, uploadReceivedMessage(up.kind))
}

// handleDescription analyzes the pending file with the user's text as the
// prompt. The chat returns to idle whatever the outcome.
func (h *Handler) handleDescription(ctx context.Context, msg *models.Message, pending domain.PendingMedia) {
	chatID := msg.Chat.ID
	log := middleware.Logger(ctx)

	defer h.conversations.Reset(chatID)

	apiKey, err := h.credentials.Get(ctx, msg.From.ID)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		h.reply(ctx, chatID, msgCredentialRequired)
		return
	}
	if err != nil {
		h.replyError(ctx, chatID, "load credential", err)
		return
	}

	stopTyping := telegram.StartTyping(ctx, h.client, chatID)
	defer stopTyping()

	dlCtx, cancel := context.WithTimeout(ctx, config.DownloadTimeout)
	data, err := h.fetcher.Fetch(dlCtx, pending.FileURL)
	cancel()
	if err != nil {
		h.replyError(ctx, chatID, "download file", err)
		return
	}

	prompt := strings.TrimSpace(msg.Text)
	if prompt == "" {
		prompt = pending.Kind.DefaultPrompt()
	}
	media := domain.MediaInput{
		Kind:     pending.Kind,
		MIMEType: service.ClassifyMIME(pending.FileURL),
		Data:     data,
	}
	log.Info("analyzing file", "kind", media.Kind, "mime_type", media.MIMEType, "size", len(data))

	reqCtx, cancel := context.WithTimeout(ctx, config.MediaRequestTimeout)
	answer, err := h.generator.Analyze(reqCtx, apiKey, media, prompt)
	cancel()
	if err != nil {
		h.replyError(ctx, chatID, "analyze file", err)
		return
	}

	stopTyping()
	h.deliver(ctx, chatID, answer)
}
