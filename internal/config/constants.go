package config

import "time"

const (
	// Rate limit window for free chat
	RateLimitWindow = 60 * time.Second

	// Credential validation cache duration
	ValidationCacheDuration = 10 * time.Minute

	// Telegram limits
	MaxTelegramMessageLen = 4096
	MaxDownloadBytes      = 20 << 20

	// Outbound Telegram sends per second and burst
	SendRatePerSecond = 25
	SendBurst         = 5

	// Delivery protocol retries before the plain text fallback
	DeliveryMaxRetries = 3

	// AI request timeouts
	ChatRequestTimeout  = 90 * time.Second
	MediaRequestTimeout = 5 * time.Minute
	DownloadTimeout     = 60 * time.Second

	// Uploaded file state polling
	FilePollInterval = 10 * time.Second

	// Reconnect delay after a polling or startup connectivity failure
	ReconnectDelay = 10 * time.Second

	// Expired cache and rate window cleanup interval
	CleanupInterval = 60 * time.Second

	// Generation settings
	GenerationTemperature = 1.0
	GenerationTopP        = 0.95
	GenerationTopK        = 40
	GenerationMaxTokens   = 8192
)

// ValidationPrompt is sent to the backend to check that a credential works.
const ValidationPrompt = "Test prompt for validation purposes."

// IntroPrompt seeds a new free chat session started with /startchat.
const IntroPrompt = "Following your instructions, introduce yourself briefly and suggest a few ideas for what we could talk about."
