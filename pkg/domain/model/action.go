package model

import (
	"time"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// Action represents a tracked request for a specific document or item within
// a conversation. The stored row is a materialized view; the audit trail is
// the ground truth for its lifecycle.
type Action struct {
	ID             types.ActionID
	ConversationID types.ConversationID
	Type           types.ActionType
	TaskKey        types.TaskKey
	TaskText       string
	Owner          types.Owner
	Status         types.ActionStatus
	Confidence     float64
	Metadata       Metadata
	MergedInto     types.ActionID // set when Status == MERGED
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the action
func (a *Action) Clone() *Action {
	c := *a
	c.Metadata = a.Metadata.Clone()
	return &c
}
