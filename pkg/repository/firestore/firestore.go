package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
)

// Firestore is the durable repository backend
type Firestore struct {
	client  *firestore.Client
	message *messageRepository
	action  *actionRepository
	history *historyRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests sharing
// a project
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.message.collectionPrefix = prefix
		f.action.collectionPrefix = prefix
		f.history.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:  client,
		message: newMessageRepository(client),
		action:  newActionRepository(client),
		history: newHistoryRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Message() interfaces.MessageRepository {
	return f.message
}

func (f *Firestore) Action() interfaces.ActionRepository {
	return f.action
}

func (f *Firestore) History() interfaces.HistoryRepository {
	return f.history
}

func (f *Firestore) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}

// nextCounterValue increments and returns the named counter in a transaction.
// Counters back the int64 IDs of actions and history entries.
func nextCounterValue(ctx context.Context, client *firestore.Client, collection, counterDoc string) (int64, error) {
	counterRef := client.Collection(collection).Doc(counterDoc)

	var nextID int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if isNotFound(err) {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		current, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := current.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", current))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate next ID",
			goerr.V("counter", counterDoc))
	}
	return nextID, nil
}
