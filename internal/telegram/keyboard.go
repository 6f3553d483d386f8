package telegram

import "github.com/go-telegram/bot/models"

// URLButton creates a URL inline keyboard button.
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// CommandKeyboard is the persistent reply keyboard listing the bot commands.
func CommandKeyboard() *models.ReplyKeyboardMarkup {
	row := func(commands ...string) []models.KeyboardButton {
		buttons := make([]models.KeyboardButton, len(commands))
		for i, c := range commands {
			buttons[i] = models.KeyboardButton{Text: c}
		}
		return buttons
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			row("/startchat", "/endchat"),
			row("/imageanalyze", "/audioanalyze"),
			row("/pdfanalyze", "/videoanalyze"),
			row("/setkey", "/help"),
		},
		ResizeKeyboard: true,
	}
}
