package interfaces

import (
	"context"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

// MessageRepository defines the interface for Message data access. Messages
// are insert-only; there is no update or delete.
type MessageRepository interface {
	// Put stores a message. Storing the same message ID twice is an error.
	Put(ctx context.Context, msg *model.Message) error

	// Get retrieves a message by ID
	Get(ctx context.Context, id types.MessageID) (*model.Message, error)

	// ListByHash retrieves messages in a conversation with the given content
	// hash, newest first. An empty result is normal and means no duplicate.
	ListByHash(ctx context.Context, conversationID types.ConversationID, hash string) ([]*model.Message, error)

	// ListByConversation retrieves all messages of a conversation ordered by
	// received time, oldest first
	ListByConversation(ctx context.Context, conversationID types.ConversationID) ([]*model.Message, error)
}
