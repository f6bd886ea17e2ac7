package interfaces

import (
	"context"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

// ActionRepository defines the interface for Action data access
type ActionRepository interface {
	// Create creates a new action with auto-generated ID
	Create(ctx context.Context, action *model.Action) (*model.Action, error)

	// Get retrieves an action by ID
	Get(ctx context.Context, id types.ActionID) (*model.Action, error)

	// Update replaces the stored row for an existing action
	Update(ctx context.Context, action *model.Action) (*model.Action, error)

	// List retrieves actions matching the filter, most recently updated first
	List(ctx context.Context, opt ListActionsOptions) ([]*model.Action, error)

	// ListOpen retrieves the OPEN and TENTATIVE actions of a conversation.
	// This is the matcher's working set; terminal actions never appear.
	ListOpen(ctx context.Context, conversationID types.ConversationID) ([]*model.Action, error)
}

// ListActionsOptions filters action listings. Zero values mean no filter.
type ListActionsOptions struct {
	ConversationID types.ConversationID
	Status         types.ActionStatus
	Type           types.ActionType
	Limit          int
}
