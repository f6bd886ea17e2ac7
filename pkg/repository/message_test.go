package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

func runMessageRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const convID = types.ConversationID("conv-msg-test")

	t.Run("Put and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		msg := model.NewMessage(convID, types.OwnerRM, "please share your PAN card", time.Now())
		gt.NoError(t, repo.Message().Put(ctx, msg)).Required()

		got, err := repo.Message().Get(ctx, msg.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(msg.ID)
		gt.Value(t, got.ConversationID).Equal(convID)
		gt.Value(t, got.Sender).Equal(types.OwnerRM)
		gt.Value(t, got.Text).Equal("please share your PAN card")
		gt.Value(t, got.ContentHash).Equal(msg.ContentHash)
		gt.Bool(t, got.CreatedAt.IsZero()).False()
	})

	t.Run("Put rejects duplicate ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		msg := model.NewMessage(convID, types.OwnerClient, "sent it", time.Now())
		gt.NoError(t, repo.Message().Put(ctx, msg)).Required()

		err := repo.Message().Put(ctx, msg)
		gt.Value(t, err).NotNil()
	})

	t.Run("Get returns not found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Message().Get(ctx, types.MessageID("no-such-message"))
		gt.Value(t, err).NotNil()
	})

	t.Run("ListByHash returns matches newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		base := time.Now().Add(-time.Hour)
		older := model.NewMessage(convID, types.OwnerClient, "PAN card sent", base)
		newer := model.NewMessage(convID, types.OwnerClient, "pan  CARD sent", base.Add(10*time.Minute))
		gt.Value(t, older.ContentHash).Equal(newer.ContentHash)

		gt.NoError(t, repo.Message().Put(ctx, older)).Required()
		gt.NoError(t, repo.Message().Put(ctx, newer)).Required()

		got, err := repo.Message().ListByHash(ctx, convID, older.ContentHash)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(2)
		gt.Value(t, got[0].ID).Equal(newer.ID)
		gt.Value(t, got[1].ID).Equal(older.ID)
	})

	t.Run("ListByHash is scoped to the conversation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		msg := model.NewMessage(convID, types.OwnerClient, "bank statement attached", time.Now())
		gt.NoError(t, repo.Message().Put(ctx, msg)).Required()

		otherHash := model.ContentHash(types.ConversationID("other-conv"), "bank statement attached")
		got, err := repo.Message().ListByHash(ctx, types.ConversationID("other-conv"), otherHash)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(0)
	})

	t.Run("ListByConversation returns oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		base := time.Now().Add(-time.Hour)
		first := model.NewMessage(convID, types.OwnerRM, "need your aadhaar", base)
		second := model.NewMessage(convID, types.OwnerClient, "sure, tomorrow", base.Add(time.Minute))
		gt.NoError(t, repo.Message().Put(ctx, second)).Required()
		gt.NoError(t, repo.Message().Put(ctx, first)).Required()

		got, err := repo.Message().ListByConversation(ctx, convID)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(2)
		gt.Value(t, got[0].ID).Equal(first.ID)
		gt.Value(t, got[1].ID).Equal(second.ID)
	})
}

func TestMemoryMessageRepository(t *testing.T) {
	runMessageRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreMessageRepository(t *testing.T) {
	runMessageRepositoryTest(t, newFirestoreRepository)
}
