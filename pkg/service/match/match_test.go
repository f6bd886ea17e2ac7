package match_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/service/match"
)

func candidate(actionType types.ActionType, taskKey string) *model.Candidate {
	return &model.Candidate{
		Type:       actionType,
		Confidence: 0.8,
		TaskKey:    types.TaskKey(taskKey),
		TaskText:   "Provide " + actionType.String(),
		Owner:      types.OwnerClient,
	}
}

func openAction(id int64, actionType types.ActionType, taskKey string, updatedAt time.Time) *model.Action {
	return &model.Action{
		ID:             types.ActionID(id),
		ConversationID: "conv-1",
		Type:           actionType,
		TaskKey:        types.TaskKey(taskKey),
		TaskText:       "Provide " + actionType.String(),
		Owner:          types.OwnerClient,
		Status:         types.ActionStatusOpen,
		Confidence:     0.8,
		UpdatedAt:      updatedAt,
	}
}

func TestMatch(t *testing.T) {
	m := match.New()

	t.Run("exact task key match wins", func(t *testing.T) {
		now := time.Now()
		open := []*model.Action{
			openAction(1, types.ActionTypePANCard, "conv-1:PAN_CARD", now),
			openAction(2, types.ActionTypePhoto, "conv-1:PHOTO", now),
		}

		decision, err := m.Match(candidate(types.ActionTypePANCard, "conv-1:PAN_CARD"), open)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Kind).Equal(model.DecisionExact)
		gt.Value(t, decision.Action.ID).Equal(types.ActionID(1))
		gt.Number(t, decision.Confidence).Equal(1.0)
	})

	t.Run("exact match prefers most recently updated", func(t *testing.T) {
		now := time.Now()
		open := []*model.Action{
			openAction(1, types.ActionTypePANCard, "conv-1:PAN_CARD", now.Add(-time.Hour)),
			openAction(2, types.ActionTypePANCard, "conv-1:PAN_CARD", now),
		}

		decision, err := m.Match(candidate(types.ActionTypePANCard, "conv-1:PAN_CARD"), open)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Action.ID).Equal(types.ActionID(2))
	})

	t.Run("fuzzy match on same type", func(t *testing.T) {
		// Different task key (no PAN refinement on the existing action) but
		// same type, owner and text drive similarity above the threshold.
		c := candidate(types.ActionTypePANCard, "conv-1:PAN_CARD:pan_ABCDE1234F")
		c.Metadata = model.Metadata{PANNumber: "ABCDE1234F"}

		open := []*model.Action{
			openAction(1, types.ActionTypePANCard, "conv-1:PAN_CARD", time.Now()),
		}

		decision, err := m.Match(c, open)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Kind).Equal(model.DecisionFuzzy)
		gt.Value(t, decision.Action.ID).Equal(types.ActionID(1))
		// Confidence is candidate confidence scaled by similarity
		gt.B(t, decision.Confidence < 0.8).True()
		gt.B(t, decision.Confidence > 0).True()
	})

	t.Run("different type never fuzzy matches", func(t *testing.T) {
		open := []*model.Action{
			openAction(1, types.ActionTypePhoto, "conv-1:PHOTO", time.Now()),
		}

		decision, err := m.Match(candidate(types.ActionTypePANCard, "conv-1:PAN_CARD"), open)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Kind).Equal(model.DecisionNew)
	})

	t.Run("no open actions yields NEW", func(t *testing.T) {
		decision, err := m.Match(candidate(types.ActionTypeAadhaar, "conv-1:AADHAAR"), nil)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Kind).Equal(model.DecisionNew)
		gt.Number(t, decision.Confidence).Equal(0.8)
	})

	t.Run("invalid candidate is rejected", func(t *testing.T) {
		c := candidate(types.ActionTypePANCard, "")
		_, err := m.Match(c, nil)
		gt.Error(t, err).Is(match.ErrInvalidCandidate)
	})

	t.Run("high fuzzy threshold forces NEW", func(t *testing.T) {
		strict := match.New(match.WithFuzzyThreshold(0.99))
		c := candidate(types.ActionTypePANCard, "conv-1:PAN_CARD:pan_ABCDE1234F")
		c.Metadata = model.Metadata{PANNumber: "ABCDE1234F"}

		open := []*model.Action{
			openAction(1, types.ActionTypePANCard, "conv-1:PAN_CARD", time.Now()),
		}

		decision, err := strict.Match(c, open)
		gt.NoError(t, err).Required()
		gt.Value(t, decision.Kind).Equal(model.DecisionNew)
	})
}
