package service

import (
	"fmt"
	"testing"

	"github.com/set-night/gembot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_Append(t *testing.T) {
	h := NewHistoryStore(4)

	h.Append(1, "q1", "a1")
	h.Append(1, "q2", "a2")
	assert.Equal(t, 4, h.Len(1))

	h.Append(1, "q3", "a3")
	turns := h.Get(1)
	require.Len(t, turns, 4)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Text: "q2"}, turns[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleModel, Text: "a3"}, turns[3])

	assert.Zero(t, h.Len(2), "chats are independent")
}

func TestHistoryStore_GetReturnsCopy(t *testing.T) {
	h := NewHistoryStore(10)
	h.Append(1, "q", "a")

	turns := h.Get(1)
	turns[0].Text = "changed"
	assert.Equal(t, "q", h.Get(1)[0].Text)
}

func TestHistoryStore_Bounded(t *testing.T) {
	h := NewHistoryStore(40)
	for i := 0; i < 100; i++ {
		h.Append(1, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	turns := h.Get(1)
	require.Len(t, turns, 40)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "q80", turns[0].Text)
	assert.Empty(t, h.Get(2))
}

func TestConversationStore(t *testing.T) {
	s := NewConversationStore()

	assert.Equal(t, domain.Idle, s.Get(1))

	s.Set(1, domain.AwaitingUpload(domain.MediaImage))
	s.Set(1, domain.AwaitingCredential)
	assert.Equal(t, domain.AwaitingCredential, s.Get(1), "setting a mode replaces the previous one")
	assert.Equal(t, 1, s.Active())

	s.Set(2, domain.AwaitingDescription(domain.MediaPDF, "https://x/doc.pdf"))
	mode := s.Get(2)
	require.NotNil(t, mode.Media)
	assert.Equal(t, domain.MediaPDF, mode.Media.Kind)

	s.Reset(1)
	s.Reset(2)
	assert.Equal(t, domain.Idle, s.Get(1))
	assert.Zero(t, s.Active())
}
