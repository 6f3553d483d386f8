package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/set-night/gembot/internal/domain"
)

// Fetcher downloads remote files, capped at maxBytes.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewFetcher(httpClient *http.Client, maxBytes int64) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, maxBytes: maxBytes}
}

func (f *Fetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// Telegram file URLs carry the bot token; never let them reach an error string.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, domain.ErrDownloadTooLarge
	}
	return data, nil
}
