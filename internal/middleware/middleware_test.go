package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageUpdate(chatID, userID int64) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: userID},
		Text: "hi",
	}}
}

func TestChatSerializer_SameChatDoesNotOverlap(t *testing.T) {
	s := NewChatSerializer()

	var running, maxRunning int32
	handler := s.Middleware()(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler(context.Background(), nil, messageUpdate(1, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
	assert.Zero(t, s.Len(), "locks are released")
}

func TestChatSerializer_DifferentChatsRunConcurrently(t *testing.T) {
	s := NewChatSerializer()

	release := make(chan struct{})
	started := make(chan int64, 2)
	handler := s.Middleware()(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		started <- update.Message.Chat.ID
		<-release
	})

	go handler(context.Background(), nil, messageUpdate(1, 1))
	go handler(context.Background(), nil, messageUpdate(2, 2))

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("second chat was blocked by the first")
		}
	}
	close(release)
}

func TestActorLoader(t *testing.T) {
	var got Actor
	var ok bool
	handler := ActorLoader()(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		got, ok = GetActor(ctx)
	})

	handler(context.Background(), nil, messageUpdate(10, 20))
	require.True(t, ok)
	assert.Equal(t, int64(10), got.ChatID)
	assert.Equal(t, int64(20), got.UserID)
	assert.NotEmpty(t, got.RequestID)

	handler(context.Background(), nil, &models.Update{})
	assert.False(t, ok)
}

func TestRecover(t *testing.T) {
	var reported error
	handler := Recover(func(ctx context.Context, err error) {
		reported = err
	})(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		panic("boom")
	})
	assert.NotPanics(t, func() {
		handler(context.Background(), nil, messageUpdate(1, 1))
	})
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "boom")

	t.Run("IncludesActor", func(t *testing.T) {
		var reported error
		handler := ActorLoader()(Recover(func(ctx context.Context, err error) {
			reported = err
		})(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			panic("boom")
		}))
		handler(context.Background(), nil, messageUpdate(77, 1))
		require.Error(t, reported)
		assert.Contains(t, reported.Error(), "chat 77")
	})

	t.Run("NilReporter", func(t *testing.T) {
		handler := Recover(nil)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			panic("boom")
		})
		assert.NotPanics(t, func() {
			handler(context.Background(), nil, messageUpdate(1, 1))
		})
	})
}
