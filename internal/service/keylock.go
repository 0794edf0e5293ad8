package service

import (
	"sync"

	"github.com/set-night/leadbot/internal/domain"
)

// conversationLocks serialises work per conversation. Entries are dropped
// once nobody holds or waits for them.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[domain.ConversationID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[domain.ConversationID]*refMutex)}
}

// Lock blocks until id is free and returns the matching unlock.
func (l *conversationLocks) Lock(id domain.ConversationID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &refMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *conversationLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
