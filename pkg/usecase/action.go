package usecase

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/utils/logging"
)

// ActionUseCase exposes read and manual lifecycle operations on actions
type ActionUseCase struct {
	parent *UseCases
}

// Get returns the action with the given ID
func (uc *ActionUseCase) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	action, err := uc.parent.repo.Action().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrActionNotFound, "action not found",
			goerr.V(ActionIDKey, id))
	}
	return action, nil
}

// List returns actions matching the given filters
func (uc *ActionUseCase) List(ctx context.Context, opt interfaces.ListActionsOptions) ([]*model.Action, error) {
	if opt.ConversationID != "" {
		if err := opt.ConversationID.Validate(); err != nil {
			return nil, goerr.Wrap(ErrValidation, err.Error())
		}
	}
	if opt.Status != "" && !opt.Status.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid status filter",
			goerr.V("status", opt.Status))
	}
	if opt.Type != "" && !opt.Type.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid type filter",
			goerr.V("type", opt.Type))
	}

	actions, err := uc.parent.repo.Action().List(ctx, opt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions")
	}
	return actions, nil
}

// History returns the full audit trail of an action, oldest first
func (uc *ActionUseCase) History(ctx context.Context, id types.ActionID) ([]*model.HistoryEntry, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := uc.parent.repo.History().ListByAction(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list history",
			goerr.V(ActionIDKey, id))
	}
	return entries, nil
}

// LatestEvent returns the most recent audit entry of an action, or nil when
// the trail is empty
func (uc *ActionUseCase) LatestEvent(ctx context.Context, id types.ActionID) (*model.HistoryEntry, error) {
	entries, err := uc.parent.repo.History().ListByAction(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list history",
			goerr.V(ActionIDKey, id))
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1], nil
}

// Close transitions an action to CLOSED on an operator's request. Closing a
// terminal action fails with ErrIllegalTransition.
func (uc *ActionUseCase) Close(ctx context.Context, id types.ActionID, reason string) (*model.Action, error) {
	action, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := uc.parent.locks.Lock(action.ConversationID)
	defer unlock()

	// Re-read under the lock; the pre-lock read was only for the lock key
	action, err = uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if action.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrIllegalTransition, "cannot close a terminal action",
			goerr.V(ActionIDKey, id),
			goerr.V("status", action.Status))
	}
	if reason == "" {
		reason = "closed by operator"
	}

	updated := action.Clone()
	updated.Status = types.ActionStatusClosed
	entry := &model.HistoryEntry{
		ActionID:          action.ID,
		EventType:         types.EventTypeClosed,
		PreviousStatus:    action.Status,
		NewStatus:         types.ActionStatusClosed,
		ConfidenceAtEvent: action.Confidence,
		Reason:            reason,
		Actor:             model.ActorUser,
	}

	committed, _, err := uc.parent.commit(ctx, updated, entry)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("closed action",
		"action_id", id,
		"conversation_id", action.ConversationID,
		"reason", reason,
	)
	return committed, nil
}

// Merge marks the source action as a duplicate of the target. The source
// becomes MERGED and points at the target; the target is left untouched.
// Merge chains are not allowed: the target must not itself be MERGED.
func (uc *ActionUseCase) Merge(ctx context.Context, sourceID, targetID types.ActionID, reason string) (*model.Action, error) {
	if sourceID == targetID {
		return nil, goerr.Wrap(ErrValidation, "cannot merge an action into itself",
			goerr.V(ActionIDKey, sourceID))
	}

	source, err := uc.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	unlock := uc.parent.locks.Lock(source.ConversationID)
	defer unlock()

	source, err = uc.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := uc.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if source.ConversationID != target.ConversationID {
		return nil, goerr.Wrap(ErrValidation, "cannot merge across conversations",
			goerr.V("source_id", sourceID),
			goerr.V("target_id", targetID))
	}
	if source.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrIllegalTransition, "cannot merge a terminal action",
			goerr.V(ActionIDKey, sourceID),
			goerr.V("status", source.Status))
	}
	if target.Status == types.ActionStatusMerged {
		return nil, goerr.Wrap(ErrIllegalTransition, "merge target is itself merged",
			goerr.V("target_id", targetID))
	}
	if reason == "" {
		reason = "merged as duplicate"
	}

	updated := source.Clone()
	updated.Status = types.ActionStatusMerged
	updated.MergedInto = target.ID
	entry := &model.HistoryEntry{
		ActionID:          source.ID,
		EventType:         types.EventTypeMerged,
		PreviousStatus:    source.Status,
		NewStatus:         types.ActionStatusMerged,
		ConfidenceAtEvent: source.Confidence,
		MergedInto:        target.ID,
		Reason:            reason,
		Actor:             model.ActorUser,
	}

	committed, _, err := uc.parent.commit(ctx, updated, entry)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("merged action",
		"source_id", sourceID,
		"target_id", targetID,
		"conversation_id", source.ConversationID,
	)
	return committed, nil
}

// Replay reconstructs an action's state purely from its audit trail
func (uc *ActionUseCase) Replay(ctx context.Context, id types.ActionID) (*model.ReplayedState, error) {
	entries, err := uc.History(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := model.Replay(entries)
	if err != nil {
		return nil, goerr.Wrap(ErrIntegrity, err.Error(), goerr.V(ActionIDKey, id))
	}
	return state, nil
}

// Drift reports a divergence between an action's stored row and the state
// derived from replaying its audit trail
type Drift struct {
	ActionID types.ActionID
	Field    string
	Stored   string
	Replayed string
}

// VerifyAll replays every action's audit trail and reports drift against the
// materialized rows. An empty conversation ID checks every conversation.
func (uc *ActionUseCase) VerifyAll(ctx context.Context, conversationID types.ConversationID) ([]*Drift, error) {
	actions, err := uc.parent.repo.Action().List(ctx, interfaces.ListActionsOptions{
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions for verification")
	}

	// Each action's trail is independent, so verification runs concurrently
	results := make([][]*Drift, len(actions))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, action := range actions {
		eg.Go(func() error {
			entries, err := uc.parent.repo.History().ListByAction(egCtx, action.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list history",
					goerr.V(ActionIDKey, action.ID))
			}
			results[i] = verifyAction(action, entries)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var drifts []*Drift
	for _, r := range results {
		drifts = append(drifts, r...)
	}
	return drifts, nil
}

func verifyAction(action *model.Action, entries []*model.HistoryEntry) []*Drift {
	state, err := model.Replay(entries)
	if err != nil {
		return []*Drift{{
			ActionID: action.ID,
			Field:    "history",
			Stored:   action.Status.String(),
			Replayed: err.Error(),
		}}
	}

	var drifts []*Drift
	if state.Status != action.Status {
		drifts = append(drifts, &Drift{
			ActionID: action.ID,
			Field:    "status",
			Stored:   action.Status.String(),
			Replayed: state.Status.String(),
		})
	}
	if state.Confidence != action.Confidence {
		drifts = append(drifts, &Drift{
			ActionID: action.ID,
			Field:    "confidence",
			Stored:   formatConfidence(action.Confidence),
			Replayed: formatConfidence(state.Confidence),
		})
	}
	if state.MergedInto != action.MergedInto {
		drifts = append(drifts, &Drift{
			ActionID: action.ID,
			Field:    "merged_into",
			Stored:   action.MergedInto.String(),
			Replayed: state.MergedInto.String(),
		})
	}
	return drifts
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
