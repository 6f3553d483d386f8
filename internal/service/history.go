package service

import (
	"sync"

	"github.com/set-night/gembot/internal/domain"
)

// HistoryStore keeps the free chat history of every chat in memory.
// Each chat holds at most maxTurns turns; the oldest user/model pair is
// dropped first so a history always starts with a user turn.
type HistoryStore struct {
	mu       sync.Mutex
	chats    map[int64][]domain.Turn
	maxTurns int
}

func NewHistoryStore(maxTurns int) *HistoryStore {
	if maxTurns < 2 {
		maxTurns = 2
	}
	return &HistoryStore{
		chats:    make(map[int64][]domain.Turn),
		maxTurns: maxTurns,
	}
}

// Get returns a copy of the chat's history.
func (s *HistoryStore) Get(chatID int64) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.chats[chatID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records one completed exchange.
func (s *HistoryStore) Append(chatID int64, userText, modelText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.chats[chatID],
		domain.Turn{Role: domain.RoleUser, Text: userText},
		domain.Turn{Role: domain.RoleModel, Text: modelText},
	)
	for len(turns) > s.maxTurns {
		turns = turns[2:]
	}
	s.chats[chatID] = turns
}

func (s *HistoryStore) Len(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats[chatID])
}
