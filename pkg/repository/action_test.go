package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

func testAction(convID types.ConversationID, actionType types.ActionType) *model.Action {
	return &model.Action{
		ConversationID: convID,
		Type:           actionType,
		TaskKey:        types.TaskKey(convID.String() + ":" + actionType.String()),
		TaskText:       "Provide " + actionType.String(),
		Owner:          types.OwnerClient,
		Status:         types.ActionStatusOpen,
		Confidence:     0.8,
	}
}

func runActionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const convID = types.ConversationID("conv-action-test")

	t.Run("Create assigns auto-increment IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Action().Create(ctx, testAction(convID, types.ActionTypePANCard))
		gt.NoError(t, err).Required()
		second, err := repo.Action().Create(ctx, testAction(convID, types.ActionTypePhoto))
		gt.NoError(t, err).Required()

		gt.Number(t, int64(first.ID)).NotEqual(0)
		gt.Number(t, int64(second.ID)).NotEqual(int64(first.ID))
		gt.Bool(t, first.CreatedAt.IsZero()).False()
		gt.Bool(t, first.UpdatedAt.IsZero()).False()
	})

	t.Run("Get retrieves a created action", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a := testAction(convID, types.ActionTypeBankStatement)
		a.Metadata = model.Metadata{PANNumber: "ABCDE1234F", Deliverable: types.DeliverablePDF}
		created, err := repo.Action().Create(ctx, a)
		gt.NoError(t, err).Required()

		got, err := repo.Action().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.TaskKey).Equal(a.TaskKey)
		gt.Value(t, got.Status).Equal(types.ActionStatusOpen)
		gt.Value(t, got.Metadata.PANNumber).Equal("ABCDE1234F")
		gt.Value(t, got.Metadata.Deliverable).Equal(types.DeliverablePDF)
	})

	t.Run("Get returns not found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Action().Get(ctx, types.ActionID(99999))
		gt.Value(t, err).NotNil()
	})

	t.Run("Update persists status changes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Action().Create(ctx, testAction(convID, types.ActionTypeSignature))
		gt.NoError(t, err).Required()

		created.Status = types.ActionStatusClosed
		updated, err := repo.Action().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.ActionStatusClosed)

		got, err := repo.Action().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActionStatusClosed)
		gt.Bool(t, got.UpdatedAt.Before(got.CreatedAt)).False()
	})

	t.Run("Update fails for unknown action", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a := testAction(convID, types.ActionTypeOther)
		a.ID = types.ActionID(424242)
		_, err := repo.Action().Update(ctx, a)
		gt.Value(t, err).NotNil()
	})

	t.Run("ListOpen excludes terminal actions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		open, err := repo.Action().Create(ctx, testAction(convID, types.ActionTypePANCard))
		gt.NoError(t, err).Required()

		tentative := testAction(convID, types.ActionTypePhoto)
		tentative.Status = types.ActionStatusTentative
		tentCreated, err := repo.Action().Create(ctx, tentative)
		gt.NoError(t, err).Required()

		closed := testAction(convID, types.ActionTypeAadhaar)
		closed.Status = types.ActionStatusClosed
		_, err = repo.Action().Create(ctx, closed)
		gt.NoError(t, err).Required()

		got, err := repo.Action().ListOpen(ctx, convID)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(2)

		ids := map[types.ActionID]bool{}
		for _, a := range got {
			ids[a.ID] = true
		}
		gt.B(t, ids[open.ID]).True()
		gt.B(t, ids[tentCreated.ID]).True()
	})

	t.Run("List filters by status and type", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Action().Create(ctx, testAction(convID, types.ActionTypePANCard))
		gt.NoError(t, err).Required()

		closed := testAction(convID, types.ActionTypePhoto)
		closed.Status = types.ActionStatusClosed
		closedCreated, err := repo.Action().Create(ctx, closed)
		gt.NoError(t, err).Required()

		byStatus, err := repo.Action().List(ctx, interfaces.ListActionsOptions{
			ConversationID: convID,
			Status:         types.ActionStatusClosed,
		})
		gt.NoError(t, err).Required()
		gt.A(t, byStatus).Length(1)
		gt.Value(t, byStatus[0].ID).Equal(closedCreated.ID)

		byType, err := repo.Action().List(ctx, interfaces.ListActionsOptions{
			ConversationID: convID,
			Type:           types.ActionTypePhoto,
		})
		gt.NoError(t, err).Required()
		gt.A(t, byType).Length(1)
		gt.Value(t, byType[0].Type).Equal(types.ActionTypePhoto)
	})

	t.Run("List honors limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, at := range []types.ActionType{types.ActionTypePANCard, types.ActionTypePhoto, types.ActionTypeAadhaar} {
			_, err := repo.Action().Create(ctx, testAction(convID, at))
			gt.NoError(t, err).Required()
		}

		got, err := repo.Action().List(ctx, interfaces.ListActionsOptions{
			ConversationID: convID,
			Limit:          2,
		})
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(2)
	})
}

func TestMemoryActionRepository(t *testing.T) {
	runActionRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreActionRepository(t *testing.T) {
	runActionRepositoryTest(t, newFirestoreRepository)
}
