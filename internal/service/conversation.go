package service

import (
	"sync"

	"github.com/set-night/gembot/internal/domain"
)

// ConversationStore holds the current mode of every chat. A chat without an
// entry is idle. Setting a mode replaces whatever was there before.
type ConversationStore struct {
	mu    sync.RWMutex
	modes map[int64]domain.Mode
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{modes: make(map[int64]domain.Mode)}
}

func (s *ConversationStore) Get(chatID int64) domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if mode, ok := s.modes[chatID]; ok {
		return mode
	}
	return domain.Idle
}

func (s *ConversationStore) Set(chatID int64, mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode.Kind == domain.ModeIdle {
		delete(s.modes, chatID)
		return
	}
	s.modes[chatID] = mode
}

func (s *ConversationStore) Reset(chatID int64) {
	s.Set(chatID, domain.Idle)
}

// Active returns the number of chats not in idle mode.
func (s *ConversationStore) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.modes)
}
