package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

func entry(id int64, ev types.EventType, prev, next types.ActionStatus, conf float64) *model.HistoryEntry {
	return &model.HistoryEntry{
		ID:                id,
		ActionID:          types.ActionID(1),
		EventType:         ev,
		PreviousStatus:    prev,
		NewStatus:         next,
		ConfidenceAtEvent: conf,
		Actor:             model.ActorSystem,
	}
}

func TestReplay(t *testing.T) {
	t.Run("full lifecycle to CLOSED", func(t *testing.T) {
		state, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeCreated, "", types.ActionStatusTentative, 0.5),
			entry(2, types.EventTypeMatched, types.ActionStatusTentative, types.ActionStatusOpen, 0.8),
			entry(3, types.EventTypeClosed, types.ActionStatusOpen, types.ActionStatusClosed, 0.8),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, state.Status).Equal(types.ActionStatusClosed)
		gt.Number(t, state.Confidence).Equal(0.8)
	})

	t.Run("MERGED records the target", func(t *testing.T) {
		merged := entry(2, types.EventTypeMerged, types.ActionStatusOpen, types.ActionStatusMerged, 0.8)
		merged.MergedInto = types.ActionID(7)

		state, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeCreated, "", types.ActionStatusOpen, 0.8),
			merged,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, state.Status).Equal(types.ActionStatusMerged)
		gt.Value(t, state.MergedInto).Equal(types.ActionID(7))
	})

	t.Run("empty history fails", func(t *testing.T) {
		_, err := model.Replay(nil)
		gt.Value(t, err).NotNil()
	})

	t.Run("first entry must be CREATED", func(t *testing.T) {
		_, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeMatched, types.ActionStatusOpen, types.ActionStatusOpen, 0.8),
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("second CREATED fails", func(t *testing.T) {
		_, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeCreated, "", types.ActionStatusOpen, 0.8),
			entry(2, types.EventTypeCreated, "", types.ActionStatusOpen, 0.8),
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("entries after terminal status fail", func(t *testing.T) {
		_, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeCreated, "", types.ActionStatusOpen, 0.8),
			entry(2, types.EventTypeClosed, types.ActionStatusOpen, types.ActionStatusClosed, 0.8),
			entry(3, types.EventTypeMatched, types.ActionStatusClosed, types.ActionStatusOpen, 0.8),
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("non-chaining previous status fails", func(t *testing.T) {
		_, err := model.Replay([]*model.HistoryEntry{
			entry(1, types.EventTypeCreated, "", types.ActionStatusTentative, 0.5),
			entry(2, types.EventTypeClosed, types.ActionStatusOpen, types.ActionStatusClosed, 0.8),
		})
		gt.Value(t, err).NotNil()
	})
}

func TestHistoryEntryValidate(t *testing.T) {
	t.Run("CREATED with previous status fails", func(t *testing.T) {
		e := entry(1, types.EventTypeCreated, types.ActionStatusOpen, types.ActionStatusOpen, 0.8)
		gt.Value(t, e.Validate()).NotNil()
	})

	t.Run("non-CREATED requires previous status", func(t *testing.T) {
		e := entry(1, types.EventTypeMatched, "", types.ActionStatusOpen, 0.8)
		gt.Value(t, e.Validate()).NotNil()
	})

	t.Run("zero action ID fails", func(t *testing.T) {
		e := entry(1, types.EventTypeCreated, "", types.ActionStatusOpen, 0.8)
		e.ActionID = 0
		gt.Value(t, e.Validate()).NotNil()
	})
}
