package middleware

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// ChatSerializer runs the updates of one chat one at a time. Updates of
// different chats still run concurrently. Locks are dropped once no update
// of the chat is running or waiting.
type ChatSerializer struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

func NewChatSerializer() *ChatSerializer {
	return &ChatSerializer{locks: make(map[int64]*chatLock)}
}

// Lock blocks until the chat is free and returns the unlock function.
func (s *ChatSerializer) Lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}

// Len returns the number of chats currently holding or waiting for a lock.
func (s *ChatSerializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// Middleware serializes message updates per chat.
func (s *ChatSerializer) Middleware() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}
			unlock := s.Lock(update.Message.Chat.ID)
			defer unlock()
			next(ctx, b, update)
		}
	}
}
