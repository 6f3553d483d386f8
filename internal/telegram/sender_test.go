package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errParse = fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: can't parse entities: character '.' is reserved")

type sentMessage struct {
	text      string
	parseMode models.ParseMode
}

// scriptedSender fails the n-th call with errs[n] and records every call.
type scriptedSender struct {
	mu   sync.Mutex
	errs []error
	sent []sentMessage
}

func (s *scriptedSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sent)
	s.sent = append(s.sent, sentMessage{text: params.Text, parseMode: params.ParseMode})
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	return &models.Message{ID: n + 1}, nil
}

func (s *scriptedSender) count(mode models.ParseMode) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.sent {
		if m.parseMode == mode {
			n++
		}
	}
	return n
}

func TestClassifySendError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want DeliveryErrorKind
	}{
		{name: "parse entities", err: errParse, want: DeliveryParseEntities},
		{name: "other bad request", err: fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: chat not found"), want: DeliveryOther},
		{name: "forbidden", err: fmt.Errorf("%w, %s", bot.ErrorForbidden, "bot was blocked by the user"), want: DeliveryOther},
		{name: "plain error mentioning parse", err: errors.New("can't parse entities"), want: DeliveryOther},
		{name: "nil", err: nil, want: DeliveryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySendError(tt.err))
		})
	}
}

func TestDeliver(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstAttemptSucceeds", func(t *testing.T) {
		s := &scriptedSender{}
		require.NoError(t, Deliver(ctx, s, 1, "*bold*"))
		require.Len(t, s.sent, 1)
		assert.Equal(t, "*bold*", s.sent[0].text)
		assert.Equal(t, models.ParseModeMarkdown, s.sent[0].parseMode)
	})

	t.Run("ParseFailureThenEscapedSuccess", func(t *testing.T) {
		s := &scriptedSender{errs: []error{errParse}}
		require.NoError(t, Deliver(ctx, s, 1, "Hello. World!"))

		assert.Equal(t, 2, s.count(models.ParseModeMarkdown))
		assert.Equal(t, 0, s.count(""))
		assert.Equal(t, `Hello\. World\!`, s.sent[1].text)
	})

	t.Run("RetriesExhaustedFallsBackToPlain", func(t *testing.T) {
		plainErr := fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: message is too long")
		s := &scriptedSender{errs: []error{errParse, errParse, errParse, errParse, plainErr}}

		err := Deliver(ctx, s, 1, "a.b")
		require.Error(t, err)
		assert.ErrorIs(t, err, bot.ErrorBadRequest)

		assert.Equal(t, 4, s.count(models.ParseModeMarkdown))
		require.Equal(t, 1, s.count(""))
		last := s.sent[len(s.sent)-1]
		assert.Equal(t, "a.b", last.text)
	})

	t.Run("PlainFallbackSucceeds", func(t *testing.T) {
		s := &scriptedSender{errs: []error{errParse, errParse, errParse, errParse}}
		require.NoError(t, Deliver(ctx, s, 1, "a.b"))
		assert.Len(t, s.sent, 5)
	})

	t.Run("OtherErrorAbortsRetryLoop", func(t *testing.T) {
		blocked := fmt.Errorf("%w, %s", bot.ErrorForbidden, "bot was blocked by the user")
		s := &scriptedSender{errs: []error{errParse, blocked}}

		err := Deliver(ctx, s, 1, "text")
		var deliveryErr *DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		assert.Equal(t, DeliveryOther, deliveryErr.Kind)
		assert.ErrorIs(t, err, bot.ErrorForbidden)
		assert.Len(t, s.sent, 2)
		assert.Equal(t, 0, s.count(""))
	})

	t.Run("FirstFailureOfAnyKindEntersRetryLoop", func(t *testing.T) {
		s := &scriptedSender{errs: []error{errors.New("timeout")}}
		require.NoError(t, Deliver(ctx, s, 1, "text"))
		assert.Len(t, s.sent, 2)
	})

	t.Run("LongTextIsSplit", func(t *testing.T) {
		s := &scriptedSender{}
		text := strings.Repeat("a", 5000)
		require.NoError(t, Deliver(ctx, s, 1, text))
		require.Len(t, s.sent, 2)
		assert.Len(t, s.sent[0].text, 4096)
		assert.Len(t, s.sent[1].text, 904)
	})
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "punctuation", in: "1. Done!", want: `1\. Done\!`},
		{name: "markup", in: "*bold* _it_ [a](b)", want: `\*bold\* \_it\_ \[a\]\(b\)`},
		{name: "all reserved", in: "_*[]()~`>#+-=|{}.!", want: "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
		{name: "escaped newline marker", in: `line1\nline2`, want: "line1\nline2"},
		{name: "real newline kept", in: "a\nb", want: "a\nb"},
		{name: "unicode", in: "привет.", want: `привет\.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeMarkdownV2(tt.in))
		})
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		assert.Equal(t, []string{"hi"}, SplitMessage("hi", 10))
	})

	t.Run("PrefersNewline", func(t *testing.T) {
		text := "aaaaaaa\nbbbbbbbbbb"
		parts := SplitMessage(text, 10)
		require.Len(t, parts, 2)
		assert.Equal(t, "aaaaaaa\n", parts[0])
		assert.Equal(t, "bbbbbbbbbb", parts[1])
	})

	t.Run("CountsRunes", func(t *testing.T) {
		parts := SplitMessage(strings.Repeat("ж", 15), 10)
		require.Len(t, parts, 2)
		assert.Equal(t, strings.Repeat("ж", 10), parts[0])
		assert.Equal(t, strings.Repeat("ж", 5), parts[1])
	})
}
