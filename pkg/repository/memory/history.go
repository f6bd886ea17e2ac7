package memory

import (
	"context"
	"sync"
	"time"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

type historyRepository struct {
	mu       sync.RWMutex
	byAction map[types.ActionID][]*model.HistoryEntry
	nextID   int64
}

func newHistoryRepository() *historyRepository {
	return &historyRepository{
		byAction: make(map[types.ActionID][]*model.HistoryEntry),
		nextID:   1,
	}
}

func copyEntry(e *model.HistoryEntry) *model.HistoryEntry {
	c := *e
	return &c
}

func (r *historyRepository) Append(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEntry(entry)
	stored.ID = r.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.nextID++

	r.byAction[stored.ActionID] = append(r.byAction[stored.ActionID], stored)
	return copyEntry(stored), nil
}

func (r *historyRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Entries are kept in append order, which is oldest first.
	entries := make([]*model.HistoryEntry, 0, len(r.byAction[actionID]))
	for _, e := range r.byAction[actionID] {
		entries = append(entries, copyEntry(e))
	}
	return entries, nil
}
