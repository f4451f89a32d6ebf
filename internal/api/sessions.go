package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/suggest"
	"github.com/filmlink/filmlink/internal/websocket"
)

const (
	sessionTTL         = 30 * time.Minute
	defaultMaxSessions = 128
	maxPendingNotices  = 16
)

// noticeQueue holds notices until the next HTTP response picks them up.
type noticeQueue struct {
	mu      sync.Mutex
	pending []string
}

func (q *noticeQueue) Notify(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == maxPendingNotices {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, message)
}

func (q *noticeQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	if out == nil {
		out = []string{}
	}
	return out
}

// RegisteredSession is a suggestion session owned by the registry.
type RegisteredSession struct {
	Session *suggest.Session
	notices *noticeQueue
	cancel  context.CancelFunc
}

// Notices returns and clears the notices raised since the last call.
func (e *RegisteredSession) Notices() []string {
	return e.notices.Drain()
}

// SessionRegistry keeps HTTP suggestion sessions by id. Idle sessions
// expire and the least recently used one is evicted when full.
type SessionRegistry struct {
	entries    *expirable.LRU[string, *RegisteredSession]
	newSession websocket.SessionFactory
}

func NewSessionRegistry(size int, ttl time.Duration, newSession websocket.SessionFactory) *SessionRegistry {
	if size <= 0 {
		size = defaultMaxSessions
	}
	onEvict := func(_ string, e *RegisteredSession) {
		e.cancel()
	}
	return &SessionRegistry{
		entries:    expirable.NewLRU[string, *RegisteredSession](size, onEvict, ttl),
		newSession: newSession,
	}
}

// Create starts a session for kind and returns its id.
func (r *SessionRegistry) Create(kind metadata.MediaKind) (string, *RegisteredSession) {
	ctx, cancel := context.WithCancel(context.Background())
	entry := &RegisteredSession{notices: &noticeQueue{}, cancel: cancel}
	entry.Session = r.newSession(ctx, kind, entry.notices)

	id := uuid.NewString()
	r.entries.Add(id, entry)
	return id, entry
}

// Get returns the session for id and refreshes its recency.
func (r *SessionRegistry) Get(id string) (*RegisteredSession, bool) {
	return r.entries.Get(id)
}

// Remove ends the session for id.
func (r *SessionRegistry) Remove(id string) bool {
	return r.entries.Remove(id)
}

func (r *SessionRegistry) Len() int {
	return r.entries.Len()
}

// Purge ends every session.
func (r *SessionRegistry) Purge() {
	r.entries.Purge()
}
