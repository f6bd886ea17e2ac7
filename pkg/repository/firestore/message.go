package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

type messageRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository(client *firestore.Client) *messageRepository {
	return &messageRepository{client: client}
}

func (r *messageRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_messages"
	}
	return "messages"
}

type messageDoc struct {
	ID             string    `firestore:"id"`
	ConversationID string    `firestore:"conversation_id"`
	Sender         string    `firestore:"sender"`
	Text           string    `firestore:"text"`
	ContentHash    string    `firestore:"content_hash"`
	ReceivedAt     time.Time `firestore:"received_at"`
	CreatedAt      time.Time `firestore:"created_at"`
}

func toMessageDoc(m *model.Message) *messageDoc {
	return &messageDoc{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		Sender:         m.Sender.String(),
		Text:           m.Text,
		ContentHash:    m.ContentHash,
		ReceivedAt:     m.ReceivedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func (d *messageDoc) toModel() *model.Message {
	return &model.Message{
		ID:             types.MessageID(d.ID),
		ConversationID: types.ConversationID(d.ConversationID),
		Sender:         types.Owner(d.Sender),
		Text:           d.Text,
		ContentHash:    d.ContentHash,
		ReceivedAt:     d.ReceivedAt,
		CreatedAt:      d.CreatedAt,
	}
}

func (r *messageRepository) Put(ctx context.Context, msg *model.Message) error {
	doc := toMessageDoc(msg)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	ref := r.client.Collection(r.collection()).Doc(doc.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err == nil {
			return goerr.New("message already exists", goerr.V("message_id", msg.ID))
		} else if !isNotFound(err) {
			return goerr.Wrap(err, "failed to check existing message")
		}
		return tx.Create(ref, doc)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save message", goerr.V("message_id", msg.ID))
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, id types.MessageID) (*model.Message, error) {
	snap, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "message not found", goerr.V("message_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get message", goerr.V("message_id", id))
	}

	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode message", goerr.V("message_id", id))
	}
	return doc.toModel(), nil
}

func (r *messageRepository) ListByHash(ctx context.Context, conversationID types.ConversationID, hash string) ([]*model.Message, error) {
	query := r.client.Collection(r.collection()).
		Where("conversation_id", "==", conversationID.String()).
		Where("content_hash", "==", hash).
		OrderBy("received_at", firestore.Desc)

	return r.queryMessages(ctx, query)
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID types.ConversationID) ([]*model.Message, error) {
	query := r.client.Collection(r.collection()).
		Where("conversation_id", "==", conversationID.String()).
		OrderBy("received_at", firestore.Asc)

	return r.queryMessages(ctx, query)
}

func (r *messageRepository) queryMessages(ctx context.Context, query firestore.Query) ([]*model.Message, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	messages := []*model.Message{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages")
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message", goerr.V("doc_id", snap.Ref.ID))
		}
		messages = append(messages, doc.toModel())
	}
	return messages, nil
}
