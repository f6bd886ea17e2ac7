package interfaces

import (
	"context"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

// HistoryRepository defines the interface for the append-only audit trail.
// Entries are never edited or deleted.
type HistoryRepository interface {
	// Append stores a new history entry with auto-generated ID and timestamp
	Append(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error)

	// ListByAction retrieves all entries for an action, oldest first. The
	// returned sequence replays to the action's current state.
	ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.HistoryEntry, error)
}
