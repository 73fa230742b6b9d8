// Package session provides conversation history storage.
// Clean Architecture: Adapter implementing ports.SessionStore.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// Options bounds the store.
type Options struct {
	MaxSessions int           // Least recently used sessions are evicted beyond this
	TTL         time.Duration // Idle sessions expire after this
	MaxMessages int           // Oldest messages are dropped beyond this per session
}

// LRUStore keeps session histories in a bounded, expiring LRU cache.
type LRUStore struct {
	mu          sync.Mutex // serializes read-modify-write in Append
	cache       *expirable.LRU[string, []entities.ChatMessage]
	maxMessages int
}

// NewLRUStore creates a session store. Zero options get defaults of
// 1024 sessions, 24h TTL and 50 messages.
func NewLRUStore(opts Options) *LRUStore {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1024
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 50
	}
	return &LRUStore{
		cache:       expirable.NewLRU[string, []entities.ChatMessage](opts.MaxSessions, nil, opts.TTL),
		maxMessages: opts.MaxMessages,
	}
}

// Get returns a copy of the session history, oldest first.
func (s *LRUStore) Get(ctx context.Context, sessionID string) []entities.ChatMessage {
	history, ok := s.cache.Get(sessionID)
	if !ok {
		return nil
	}
	return append([]entities.ChatMessage(nil), history...)
}

// Append adds messages to the session and refreshes its TTL.
func (s *LRUStore) Append(ctx context.Context, sessionID string, msgs ...entities.ChatMessage) {
	if len(msgs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.cache.Peek(sessionID)
	history := make([]entities.ChatMessage, 0, len(prev)+len(msgs))
	history = append(history, prev...)
	history = append(history, msgs...)
	if len(history) > s.maxMessages {
		history = history[len(history)-s.maxMessages:]
	}
	s.cache.Add(sessionID, history)
}

// Evict drops a session and reports whether it existed.
func (s *LRUStore) Evict(ctx context.Context, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(sessionID)
}

// Len returns the number of live sessions.
func (s *LRUStore) Len() int {
	return s.cache.Len()
}
