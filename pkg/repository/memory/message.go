package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

type messageRepository struct {
	mu       sync.RWMutex
	messages map[types.MessageID]*model.Message
	byConv   map[types.ConversationID][]types.MessageID
}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		messages: make(map[types.MessageID]*model.Message),
		byConv:   make(map[types.ConversationID][]types.MessageID),
	}
}

func copyMessage(m *model.Message) *model.Message {
	c := *m
	return &c
}

func (r *messageRepository) Put(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.messages[msg.ID]; exists {
		return goerr.New("message already exists", goerr.V("message_id", msg.ID))
	}

	stored := copyMessage(msg)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.messages[stored.ID] = stored
	r.byConv[stored.ConversationID] = append(r.byConv[stored.ConversationID], stored.ID)
	return nil
}

func (r *messageRepository) Get(ctx context.Context, id types.MessageID) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, exists := r.messages[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "message not found", goerr.V("message_id", id))
	}
	return copyMessage(msg), nil
}

func (r *messageRepository) ListByHash(ctx context.Context, conversationID types.ConversationID, hash string) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*model.Message{}
	for _, id := range r.byConv[conversationID] {
		if msg := r.messages[id]; msg.ContentHash == hash {
			matched = append(matched, copyMessage(msg))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})
	return matched, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID types.ConversationID) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]*model.Message, 0, len(r.byConv[conversationID]))
	for _, id := range r.byConv[conversationID] {
		messages = append(messages, copyMessage(r.messages[id]))
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})
	return messages, nil
}
