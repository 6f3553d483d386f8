package service

import (
	"sync"
	"time"
)

type rateWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter allows at most max requests per user in a fixed window that
// restarts once it is older than window. Rejected requests still count.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	windows map[int64]*rateWindow
	now     func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		windows: make(map[int64]*rateWindow),
		now:     time.Now,
	}
}

// Allow records a request and reports whether it is within budget.
func (l *RateLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[userID]
	if !ok || now.Sub(w.windowStart) > l.window {
		l.windows[userID] = &rateWindow{count: 1, windowStart: now}
		return true
	}

	w.count++
	return w.count <= l.max
}

// Count returns the requests recorded in the user's current window.
func (l *RateLimiter) Count(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[userID]; ok {
		return w.count
	}
	return 0
}

// Prune forgets windows that have already expired.
func (l *RateLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for userID, w := range l.windows {
		if now.Sub(w.windowStart) > l.window {
			delete(l.windows, userID)
			removed++
		}
	}
	return removed
}
