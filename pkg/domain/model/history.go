package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// Actor values recorded on history entries
const (
	ActorSystem = "system"
	ActorUser   = "user"
)

// HistoryEntry is one immutable audit record of an action lifecycle event.
// Entries are append-only and never edited or deleted; replaying them in
// order reconstructs the action's current state.
type HistoryEntry struct {
	ID                int64
	ActionID          types.ActionID
	EventType         types.EventType
	PreviousStatus    types.ActionStatus // empty on CREATED
	NewStatus         types.ActionStatus
	ConfidenceAtEvent float64
	SourceMessageID   types.MessageID // empty for manually triggered close/merge
	MergedInto        types.ActionID  // set on MERGED entries
	Reason            string
	Actor             string
	CreatedAt         time.Time
}

// Validate checks if the history entry is well-formed
func (e *HistoryEntry) Validate() error {
	if e.ActionID == 0 {
		return goerr.New("history entry requires an action ID")
	}
	if !e.EventType.IsValid() {
		return goerr.New("invalid event type", goerr.V("event_type", e.EventType))
	}
	if !e.NewStatus.IsValid() {
		return goerr.New("invalid new status", goerr.V("new_status", e.NewStatus))
	}
	if e.EventType == types.EventTypeCreated {
		if e.PreviousStatus != "" {
			return goerr.New("CREATED entry must not carry a previous status",
				goerr.V("previous_status", e.PreviousStatus))
		}
	} else if !e.PreviousStatus.IsValid() {
		return goerr.New("invalid previous status", goerr.V("previous_status", e.PreviousStatus))
	}
	return nil
}

// ReplayedState is the action state derived by replaying history entries
type ReplayedState struct {
	Status     types.ActionStatus
	Confidence float64
	MergedInto types.ActionID
}

// Replay folds an action's history entries, oldest first, into its derived
// current state. It fails when the sequence is not a legal lifecycle: the
// first entry must be CREATED, each entry's previous status must equal the
// state so far, and nothing follows a terminal status.
func Replay(entries []*HistoryEntry) (*ReplayedState, error) {
	if len(entries) == 0 {
		return nil, goerr.New("cannot replay empty history")
	}

	first := entries[0]
	if first.EventType != types.EventTypeCreated {
		return nil, goerr.New("history does not start with CREATED",
			goerr.V("action_id", first.ActionID), goerr.V("event_type", first.EventType))
	}

	state := &ReplayedState{
		Status:     first.NewStatus,
		Confidence: first.ConfidenceAtEvent,
	}

	for _, e := range entries[1:] {
		if e.EventType == types.EventTypeCreated {
			return nil, goerr.New("CREATED entry after action creation",
				goerr.V("action_id", e.ActionID), goerr.V("entry_id", e.ID))
		}
		if state.Status.IsTerminal() {
			return nil, goerr.New("history entry after terminal status",
				goerr.V("action_id", e.ActionID),
				goerr.V("entry_id", e.ID),
				goerr.V("status", state.Status))
		}
		if e.PreviousStatus != state.Status {
			return nil, goerr.New("history entry previous status does not chain",
				goerr.V("action_id", e.ActionID),
				goerr.V("entry_id", e.ID),
				goerr.V("expected", state.Status),
				goerr.V("recorded", e.PreviousStatus))
		}

		state.Status = e.NewStatus
		state.Confidence = e.ConfidenceAtEvent
		if e.EventType == types.EventTypeMerged {
			state.MergedInto = e.MergedInto
		}
	}

	return state, nil
}
