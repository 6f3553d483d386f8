package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// FileResolver looks up Telegram files.
type FileResolver interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// GetFileURL returns the download URL for a Telegram file.
func GetFileURL(ctx context.Context, r FileResolver, fileID string) (string, error) {
	file, err := r.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}
	return r.FileDownloadLink(file), nil
}
