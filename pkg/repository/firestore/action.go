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

type actionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ActionRepository = &actionRepository{}

func newActionRepository(client *firestore.Client) *actionRepository {
	return &actionRepository{client: client}
}

func (r *actionRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_actions"
	}
	return "actions"
}

func (r *actionRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

type actionDoc struct {
	ID             int64     `firestore:"id"`
	ConversationID string    `firestore:"conversation_id"`
	Type           string    `firestore:"type"`
	TaskKey        string    `firestore:"task_key"`
	TaskText       string    `firestore:"task_text"`
	Owner          string    `firestore:"owner"`
	Status         string    `firestore:"status"`
	Confidence     float64   `firestore:"confidence"`
	PANNumber      string    `firestore:"pan_number"`
	URLs           []string  `firestore:"urls"`
	Deliverable    string    `firestore:"deliverable"`
	MergedInto     int64     `firestore:"merged_into"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

func toActionDoc(a *model.Action) *actionDoc {
	return &actionDoc{
		ID:             int64(a.ID),
		ConversationID: a.ConversationID.String(),
		Type:           a.Type.String(),
		TaskKey:        a.TaskKey.String(),
		TaskText:       a.TaskText,
		Owner:          a.Owner.String(),
		Status:         a.Status.String(),
		Confidence:     a.Confidence,
		PANNumber:      a.Metadata.PANNumber,
		URLs:           a.Metadata.URLs,
		Deliverable:    a.Metadata.Deliverable.String(),
		MergedInto:     int64(a.MergedInto),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (d *actionDoc) toModel() *model.Action {
	return &model.Action{
		ID:             types.ActionID(d.ID),
		ConversationID: types.ConversationID(d.ConversationID),
		Type:           types.ActionType(d.Type),
		TaskKey:        types.TaskKey(d.TaskKey),
		TaskText:       d.TaskText,
		Owner:          types.Owner(d.Owner),
		Status:         types.ActionStatus(d.Status),
		Confidence:     d.Confidence,
		Metadata: model.Metadata{
			PANNumber:   d.PANNumber,
			URLs:        d.URLs,
			Deliverable: types.DeliverableType(d.Deliverable),
		},
		MergedInto: types.ActionID(d.MergedInto),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *actionRepository) docRef(id types.ActionID) *firestore.DocumentRef {
	return r.client.Collection(r.collection()).Doc(strconv.FormatInt(int64(id), 10))
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	id, err := nextCounterValue(ctx, r.client, r.counterCollection(), "action_counter")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := action.Clone()
	created.ID = types.ActionID(id)
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.docRef(created.ID).Create(ctx, toActionDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create action", goerr.V("action_id", created.ID))
	}
	return created, nil
}

func (r *actionRepository) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	snap, err := r.docRef(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "action not found", goerr.V("action_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("action_id", id))
	}

	var doc actionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action", goerr.V("action_id", id))
	}
	return doc.toModel(), nil
}

func (r *actionRepository) Update(ctx context.Context, action *model.Action) (*model.Action, error) {
	ref := r.docRef(action.ID)

	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "action not found", goerr.V("action_id", action.ID))
		}
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("action_id", action.ID))
	}

	var existing actionDoc
	if err := snap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action", goerr.V("action_id", action.ID))
	}

	updated := action.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := ref.Set(ctx, toActionDoc(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update action", goerr.V("action_id", action.ID))
	}
	return updated, nil
}

func (r *actionRepository) List(ctx context.Context, opt interfaces.ListActionsOptions) ([]*model.Action, error) {
	query := r.client.Collection(r.collection()).Query
	if opt.ConversationID != "" {
		query = query.Where("conversation_id", "==", opt.ConversationID.String())
	}
	if opt.Status != "" {
		query = query.Where("status", "==", opt.Status.String())
	}
	if opt.Type != "" {
		query = query.Where("type", "==", opt.Type.String())
	}
	query = query.OrderBy("updated_at", firestore.Desc)
	if opt.Limit > 0 {
		query = query.Limit(opt.Limit)
	}

	return r.queryActions(ctx, query)
}

func (r *actionRepository) ListOpen(ctx context.Context, conversationID types.ConversationID) ([]*model.Action, error) {
	query := r.client.Collection(r.collection()).
		Where("conversation_id", "==", conversationID.String()).
		Where("status", "in", []string{
			types.ActionStatusOpen.String(),
			types.ActionStatusTentative.String(),
		}).
		OrderBy("updated_at", firestore.Desc)

	return r.queryActions(ctx, query)
}

func (r *actionRepository) queryActions(ctx context.Context, query firestore.Query) ([]*model.Action, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	actions := []*model.Action{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate actions")
		}

		var doc actionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode action", goerr.V("doc_id", snap.Ref.ID))
		}
		actions = append(actions, doc.toModel())
	}
	return actions, nil
}
