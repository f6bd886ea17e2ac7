package usecase

import (
	"sync"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// conversationLocks serializes the atomic unit {read open actions → decide →
// append history → update store} per conversation. Two concurrent messages in
// the same conversation must never both observe the same open-actions
// snapshot; messages in different conversations proceed in parallel.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[types.ConversationID]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[types.ConversationID]*sync.Mutex),
	}
}

// Lock acquires the conversation's lock and returns its unlock function
func (l *conversationLocks) Lock(id types.ConversationID) func() {
	l.mu.Lock()
	lock, exists := l.locks[id]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
