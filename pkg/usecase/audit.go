package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/model"
)

// commit applies one lifecycle transition: it verifies the entry's previous
// status against the materialized row, appends the audit entry, then updates
// the store. The caller must hold the conversation lock; the status check
// still guards against lost updates from writers outside that discipline.
func (uc *UseCases) commit(ctx context.Context, action *model.Action, entry *model.HistoryEntry) (*model.Action, *model.HistoryEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, nil, goerr.Wrap(ErrValidation, err.Error())
	}

	current, err := uc.repo.Action().Get(ctx, action.ID)
	if err != nil {
		return nil, nil, goerr.Wrap(ErrActionNotFound, "action not found",
			goerr.V(ActionIDKey, action.ID))
	}

	if current.Status != entry.PreviousStatus {
		return nil, nil, goerr.Wrap(ErrIntegrity, "stale previous status",
			goerr.V(ActionIDKey, action.ID),
			goerr.V("expected", entry.PreviousStatus),
			goerr.V("current", current.Status))
	}

	appended, err := uc.repo.History().Append(ctx, entry)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to append history entry",
			goerr.V(ActionIDKey, action.ID))
	}

	updated, err := uc.repo.Action().Update(ctx, action)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to update action",
			goerr.V(ActionIDKey, action.ID))
	}

	return updated, appended, nil
}

// createAction creates the store row, then appends its CREATED entry. The
// row must exist first so the audit trail can reference its generated ID.
func (uc *UseCases) createAction(ctx context.Context, action *model.Action, entry *model.HistoryEntry) (*model.Action, *model.HistoryEntry, error) {
	created, err := uc.repo.Action().Create(ctx, action)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create action",
			goerr.V(ConversationIDKey, action.ConversationID))
	}

	entry.ActionID = created.ID
	if err := entry.Validate(); err != nil {
		return nil, nil, goerr.Wrap(ErrValidation, err.Error())
	}

	appended, err := uc.repo.History().Append(ctx, entry)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to append CREATED entry",
			goerr.V(ActionIDKey, created.ID))
	}

	return created, appended, nil
}
