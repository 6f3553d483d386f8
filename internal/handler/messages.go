package handler

import (
	"errors"
	"fmt"

	"github.com/set-night/gembot/internal/domain"
)

const capabilityMenu = "What would you like to do?\n\n" +
	"/startchat - Chat with the assistant\n" +
	"/imageanalyze - Analyze an image\n" +
	"/audioanalyze - Analyze an audio file\n" +
	"/pdfanalyze - Analyze a PDF document\n" +
	"/videoanalyze - Analyze a video\n" +
	"/setkey - Set or change your API key\n" +
	"/endchat - End the current chat\n" +
	"/help - How to get a free API key"

const (
	msgOnboarding = "👋 Welcome! I am an assistant powered by Google Gemini.\n\n" +
		"I work with your own free Gemini API key. Send /setkey to add it, " +
		"or /help to learn how to get one."
	msgWelcomeBack = "👋 Welcome back! Your API key is already set.\n\n" + capabilityMenu

	msgHelp = "🔑 How to get a free Gemini API key:\n\n" +
		"1. Open Google AI Studio: https://aistudio.google.com/app/apikey\n" +
		"2. Sign in with your Google account\n" +
		"3. Click \"Create API key\" and copy it\n" +
		"4. Send /setkey here and paste the key\n\n" +
		"Your key is stored encrypted and is only used for your own requests."

	msgCredentialRequired = "🔑 You need to set your Gemini API key first. Send /setkey to add it, or /help to learn how to get one."
	msgCredentialPrompt   = "🔑 Send me your Gemini API key."
	msgCredentialEmpty    = "❌ The API key is empty. Send /setkey to try again."
	msgCredentialInvalid  = "❌ This API key is not valid. Check it and send /setkey to try again."
	msgCredentialCheck    = "⏳ Could not check the API key right now. Please send /setkey and try again in a moment."
	msgCredentialSaved    = "✅ Your API key has been saved.\n\n" + capabilityMenu
	msgCredentialBroken   = "❌ Your stored API key could not be read. Please send /setkey to set it again."

	msgChatStarted  = "💬 Chat started! Send me a message. Use /endchat to finish."
	msgChatActive   = "💬 A chat is already active. Just send a message, or /endchat to finish."
	msgChatEnded    = "✅ Chat ended. Use /startchat to begin a new one."
	msgNoActiveChat = "There is no active chat. Use /startchat to begin one."
	msgSlowDown     = "⏳ You are sending messages too fast. Please wait a minute and try again."

	msgNotPDF       = "❌ Please send the document as a PDF file."
	msgFileNotFound = "❌ Could not get the file from Telegram. Please send it again."

	msgAdminOnly = "⛔ This command is only available to administrators."

	msgTransient = "⏳ The AI service is temporarily unavailable. Please try again shortly."
	msgSafety    = "⚠️ The request was blocked by the content safety filter. Try rephrasing it."
	msgQuota     = "⏳ Your API key has reached its usage limit. Please wait a bit and try again."
	msgTooLarge  = "❌ The file is too large. The maximum size is 20 MB."
	msgGeneric   = "❌ Something went wrong while processing your request. Please try again."
)

var mediaNames = map[domain.MediaKind]string{
	domain.MediaImage: "image",
	domain.MediaAudio: "audio file",
	domain.MediaPDF:   "PDF document",
	domain.MediaVideo: "video",
}

func askUploadMessage(kind domain.MediaKind) string {
	return fmt.Sprintf("📎 Send me the %s you want to analyze.", mediaNames[kind])
}

func uploadReceivedMessage(kind domain.MediaKind) string {
	return fmt.Sprintf("✅ Got the %s. What would you like me to do with it?", mediaNames[kind])
}

// errorMessage maps a failure to the text shown to the user. Details stay in
// the logs.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDownloadTooLarge):
		return msgTooLarge
	case errors.Is(err, domain.ErrInvalidCiphertext):
		return msgCredentialBroken
	}

	switch domain.KindOf(err) {
	case domain.KindTransient:
		return msgTransient
	case domain.KindSafety:
		return msgSafety
	case domain.KindQuota:
		return msgQuota
	default:
		return msgGeneric
	}
}
