package firestore

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

type historyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.HistoryRepository = &historyRepository{}

func newHistoryRepository(client *firestore.Client) *historyRepository {
	return &historyRepository{client: client}
}

func (r *historyRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_action_history"
	}
	return "action_history"
}

func (r *historyRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

type historyDoc struct {
	ID                int64     `firestore:"id"`
	ActionID          int64     `firestore:"action_id"`
	EventType         string    `firestore:"event_type"`
	PreviousStatus    string    `firestore:"previous_status"`
	NewStatus         string    `firestore:"new_status"`
	ConfidenceAtEvent float64   `firestore:"confidence_at_event"`
	SourceMessageID   string    `firestore:"source_message_id"`
	MergedInto        int64     `firestore:"merged_into"`
	Reason            string    `firestore:"reason"`
	Actor             string    `firestore:"actor"`
	CreatedAt         time.Time `firestore:"created_at"`
}

func toHistoryDoc(e *model.HistoryEntry) *historyDoc {
	return &historyDoc{
		ID:                e.ID,
		ActionID:          int64(e.ActionID),
		EventType:         e.EventType.String(),
		PreviousStatus:    e.PreviousStatus.String(),
		NewStatus:         e.NewStatus.String(),
		ConfidenceAtEvent: e.ConfidenceAtEvent,
		SourceMessageID:   e.SourceMessageID.String(),
		MergedInto:        int64(e.MergedInto),
		Reason:            e.Reason,
		Actor:             e.Actor,
		CreatedAt:         e.CreatedAt,
	}
}

func (d *historyDoc) toModel() *model.HistoryEntry {
	return &model.HistoryEntry{
		ID:                d.ID,
		ActionID:          types.ActionID(d.ActionID),
		EventType:         types.EventType(d.EventType),
		PreviousStatus:    types.ActionStatus(d.PreviousStatus),
		NewStatus:         types.ActionStatus(d.NewStatus),
		ConfidenceAtEvent: d.ConfidenceAtEvent,
		SourceMessageID:   types.MessageID(d.SourceMessageID),
		MergedInto:        types.ActionID(d.MergedInto),
		Reason:            d.Reason,
		Actor:             d.Actor,
		CreatedAt:         d.CreatedAt,
	}
}

func (r *historyRepository) Append(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error) {
	id, err := nextCounterValue(ctx, r.client, r.counterCollection(), "history_counter")
	if err != nil {
		return nil, err
	}

	stored := *entry
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	ref := r.client.Collection(r.collection()).Doc(strconv.FormatInt(id, 10))
	if _, err := ref.Create(ctx, toHistoryDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to append history entry",
			goerr.V("action_id", entry.ActionID))
	}
	return &stored, nil
}

func (r *historyRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.HistoryEntry, error) {
	// Order by ID rather than timestamp: IDs are allocated in append order
	// and are unique, so the sequence is stable even when entries share a
	// timestamp.
	query := r.client.Collection(r.collection()).
		Where("action_id", "==", int64(actionID)).
		OrderBy("id", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	entries := []*model.HistoryEntry{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate history entries",
				goerr.V("action_id", actionID))
		}

		var doc historyDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode history entry",
				goerr.V("doc_id", snap.Ref.ID))
		}
		entries = append(entries, doc.toModel())
	}
	return entries, nil
}
