package telegram

import (
	"strings"
	"unicode/utf8"
)

// markdownV2Reserved are the characters MarkdownV2 requires to be escaped
// outside of entities.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!"

var markdownV2Escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(markdownV2Reserved))
	for _, r := range markdownV2Reserved {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 escapes every reserved character so the text renders
// literally, then turns escaped newline markers back into real newlines.
func EscapeMarkdownV2(text string) string {
	escaped := markdownV2Escaper.Replace(text)
	return strings.ReplaceAll(escaped, `\n`, "\n")
}

// SplitMessage splits a message into chunks of maxLen characters,
// trying to split at newlines when possible.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}

		splitAt := maxLen
		if lastNewline := lastIndexRune(runes[:maxLen], '\n'); lastNewline > maxLen/2 {
			splitAt = lastNewline + 1
		}

		parts = append(parts, string(runes[:splitAt]))
		runes = runes[splitAt:]
	}

	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
