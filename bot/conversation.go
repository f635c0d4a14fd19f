package bot

import (
	"sync"
	"time"
)

// ConversationState identifies what free-text input a user's next message is
// expected to provide
type ConversationState string

const (
	// StateAwaitingInviteCode means the next non-command text is treated as a
	// referral code
	StateAwaitingInviteCode ConversationState = "awaiting_invite_code"

	// StateAwaitingBroadcast means the next non-command text is broadcast to
	// all active users (admin only)
	StateAwaitingBroadcast ConversationState = "awaiting_broadcast"
)

type conversationEntry struct {
	state     ConversationState
	timestamp time.Time
}

// ConversationTracker keeps short-lived per-user conversation state in memory.
// Entries expire after the TTL so an abandoned prompt never pins memory or
// swallows an unrelated message days later.
type ConversationTracker struct {
	mu      sync.RWMutex
	entries map[int64]*conversationEntry
	ttl     time.Duration
	done    chan struct{}
}

// NewConversationTracker creates a tracker and starts its janitor goroutine
func NewConversationTracker(ttl time.Duration) *ConversationTracker {
	t := &ConversationTracker{
		entries: make(map[int64]*conversationEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go t.janitor()
	return t
}

// Set stores or replaces the state for a user
func (t *ConversationTracker) Set(telegramID int64, state ConversationState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[telegramID] = &conversationEntry{
		state:     state,
		timestamp: time.Now(),
	}
}

// Get returns the user's current state if one exists and has not expired
func (t *ConversationTracker) Get(telegramID int64) (ConversationState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[telegramID]
	if !ok || time.Since(entry.timestamp) > t.ttl {
		return "", false
	}
	return entry.state, true
}

// Clear removes the user's state
func (t *ConversationTracker) Clear(telegramID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, telegramID)
}

// Stop terminates the janitor goroutine
func (t *ConversationTracker) Stop() {
	close(t.done)
}

func (t *ConversationTracker) janitor() {
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep removes entries older than the TTL
func (t *ConversationTracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for telegramID, entry := range t.entries {
		if now.Sub(entry.timestamp) > t.ttl {
			delete(t.entries, telegramID)
		}
	}
}
