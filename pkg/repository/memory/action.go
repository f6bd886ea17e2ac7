package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

type actionRepository struct {
	mu      sync.RWMutex
	actions map[types.ActionID]*model.Action
	nextID  types.ActionID
}

func newActionRepository() *actionRepository {
	return &actionRepository{
		actions: make(map[types.ActionID]*model.Action),
		nextID:  1,
	}
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := action.Clone()
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.actions[created.ID] = created
	return created.Clone(), nil
}

func (r *actionRepository) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, exists := r.actions[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "action not found", goerr.V("action_id", id))
	}
	return action.Clone(), nil
}

func (r *actionRepository) Update(ctx context.Context, action *model.Action) (*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.actions[action.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "action not found", goerr.V("action_id", action.ID))
	}

	updated := action.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.actions[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *actionRepository) List(ctx context.Context, opt interfaces.ListActionsOptions) ([]*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := []*model.Action{}
	for _, action := range r.actions {
		if opt.ConversationID != "" && action.ConversationID != opt.ConversationID {
			continue
		}
		if opt.Status != "" && action.Status != opt.Status {
			continue
		}
		if opt.Type != "" && action.Type != opt.Type {
			continue
		}
		actions = append(actions, action.Clone())
	}

	sortByUpdatedDesc(actions)

	if opt.Limit > 0 && len(actions) > opt.Limit {
		actions = actions[:opt.Limit]
	}
	return actions, nil
}

func (r *actionRepository) ListOpen(ctx context.Context, conversationID types.ConversationID) ([]*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := []*model.Action{}
	for _, action := range r.actions {
		if action.ConversationID == conversationID && action.Status.IsOpen() {
			actions = append(actions, action.Clone())
		}
	}

	sortByUpdatedDesc(actions)
	return actions, nil
}

// sortByUpdatedDesc orders actions most recently updated first, with ID as a
// deterministic tie-break
func sortByUpdatedDesc(actions []*model.Action) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].UpdatedAt.Equal(actions[j].UpdatedAt) {
			return actions[i].ID > actions[j].ID
		}
		return actions[i].UpdatedAt.After(actions[j].UpdatedAt)
	})
}
