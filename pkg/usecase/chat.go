package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/utils/logging"
)

// ChatUseCase ingests conversation messages and drives the action lifecycle
type ChatUseCase struct {
	parent *UseCases
}

// IncomingMessage is one raw chat message submitted for processing
type IncomingMessage struct {
	Sender     types.Owner
	Text       string
	ReceivedAt time.Time
}

// Transition records one action lifecycle change caused by a message
type Transition struct {
	Action     *model.Action
	Entry      *model.HistoryEntry
	Decision   model.DecisionKind
	Confidence float64
}

// MessageResult is the processing outcome for one message
type MessageResult struct {
	Message     *model.Message
	Duplicate   bool
	Candidates  int
	Transitions []*Transition
}

// ProcessResult aggregates the outcomes of one ProcessChat call
type ProcessResult struct {
	ConversationID types.ConversationID
	Messages       []*MessageResult
	Created        int
	Matched        int
	Closed         int
	Tentative      int
	Duplicates     int
}

// Summary renders a one-line human-readable digest of the batch
func (r *ProcessResult) Summary() string {
	parts := []string{
		fmt.Sprintf("%d messages", len(r.Messages)),
		fmt.Sprintf("%d created", r.Created),
		fmt.Sprintf("%d matched", r.Matched),
		fmt.Sprintf("%d closed", r.Closed),
	}
	if r.Tentative > 0 {
		parts = append(parts, fmt.Sprintf("%d tentative", r.Tentative))
	}
	if r.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", r.Duplicates))
	}
	return strings.Join(parts, ", ")
}

// ProcessChat runs the full pipeline for a batch of messages: dedup, store,
// extract, match, and apply lifecycle transitions with audit entries.
// Messages are processed in submission order. Each message is an atomic unit
// serialized under the conversation lock, so concurrent calls for the same
// conversation interleave at message granularity and never corrupt state.
func (uc *ChatUseCase) ProcessChat(ctx context.Context, conversationID types.ConversationID, messages []IncomingMessage) (*ProcessResult, error) {
	if err := conversationID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error())
	}
	if len(messages) == 0 {
		return nil, goerr.Wrap(ErrValidation, "no messages to process",
			goerr.V(ConversationIDKey, conversationID))
	}
	for i, in := range messages {
		if !in.Sender.IsValid() {
			return nil, goerr.Wrap(ErrValidation, "unknown sender",
				goerr.V(ConversationIDKey, conversationID),
				goerr.V("index", i),
				goerr.V("sender", in.Sender))
		}
		if strings.TrimSpace(in.Text) == "" {
			return nil, goerr.Wrap(ErrValidation, "empty message text",
				goerr.V(ConversationIDKey, conversationID),
				goerr.V("index", i))
		}
	}

	result := &ProcessResult{ConversationID: conversationID}
	for _, in := range messages {
		mr, err := uc.processOne(ctx, conversationID, in)
		if err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, mr)
		if mr.Duplicate {
			result.Duplicates++
			continue
		}
		for _, tr := range mr.Transitions {
			switch tr.Entry.EventType {
			case types.EventTypeCreated:
				result.Created++
				if tr.Action.Status == types.ActionStatusTentative {
					result.Tentative++
				}
			case types.EventTypeMatched:
				result.Matched++
			case types.EventTypeTentativeMatched:
				result.Matched++
				result.Tentative++
			case types.EventTypeClosed:
				result.Closed++
			}
		}
	}

	logging.From(ctx).Info("processed chat batch",
		"conversation_id", conversationID,
		"messages", len(result.Messages),
		"created", result.Created,
		"matched", result.Matched,
		"closed", result.Closed,
		"tentative", result.Tentative,
		"duplicates", result.Duplicates,
	)

	return result, nil
}

func (uc *ChatUseCase) processOne(ctx context.Context, conversationID types.ConversationID, in IncomingMessage) (*MessageResult, error) {
	unlock := uc.parent.locks.Lock(conversationID)
	defer unlock()

	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	msg := model.NewMessage(conversationID, in.Sender, in.Text, receivedAt)

	dup, err := uc.isDuplicate(ctx, msg)
	if err != nil {
		return nil, err
	}
	if dup {
		logging.From(ctx).Debug("skipped duplicate message",
			"conversation_id", conversationID,
			"content_hash", msg.ContentHash,
		)
		return &MessageResult{Message: msg, Duplicate: true}, nil
	}

	if err := uc.parent.repo.Message().Put(ctx, msg); err != nil {
		return nil, goerr.Wrap(err, "failed to store message",
			goerr.V(ConversationIDKey, conversationID),
			goerr.V(MessageIDKey, msg.ID))
	}

	candidates := uc.parent.extractor.Extract(msg)
	mr := &MessageResult{Message: msg, Candidates: len(candidates)}

	// Re-read the open set for every candidate: an earlier candidate in the
	// same message may have created or closed an action that later
	// candidates must see.
	for _, candidate := range candidates {
		open, err := uc.parent.repo.Action().ListOpen(ctx, conversationID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list open actions",
				goerr.V(ConversationIDKey, conversationID))
		}

		decision, err := uc.parent.matcher.Match(candidate, open)
		if err != nil {
			return nil, goerr.Wrap(err, "matcher rejected candidate",
				goerr.V(ConversationIDKey, conversationID),
				goerr.V(MessageIDKey, msg.ID))
		}

		tr, err := uc.applyDecision(ctx, msg, candidate, decision)
		if err != nil {
			return nil, err
		}
		mr.Transitions = append(mr.Transitions, tr)
	}

	return mr, nil
}

// isDuplicate reports whether an equivalent message was already ingested
// within the dedup window. A zero window means duplicates are rejected
// regardless of age.
func (uc *ChatUseCase) isDuplicate(ctx context.Context, msg *model.Message) (bool, error) {
	prior, err := uc.parent.repo.Message().ListByHash(ctx, msg.ConversationID, msg.ContentHash)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check for duplicate message",
			goerr.V(ConversationIDKey, msg.ConversationID))
	}
	if len(prior) == 0 {
		return false, nil
	}
	if uc.parent.dedupWindow == 0 {
		return true, nil
	}

	// prior is newest first
	age := msg.ReceivedAt.Sub(prior[0].ReceivedAt)
	if age < 0 {
		age = -age
	}
	return age <= uc.parent.dedupWindow, nil
}

func (uc *ChatUseCase) applyDecision(ctx context.Context, msg *model.Message, candidate *model.Candidate, decision *model.Decision) (*Transition, error) {
	switch decision.Kind {
	case model.DecisionNew:
		return uc.createFromCandidate(ctx, msg, candidate, decision)
	case model.DecisionExact, model.DecisionFuzzy:
		return uc.matchExisting(ctx, msg, candidate, decision)
	default:
		return nil, goerr.New("unknown decision kind", goerr.V("kind", decision.Kind))
	}
}

func (uc *ChatUseCase) createFromCandidate(ctx context.Context, msg *model.Message, candidate *model.Candidate, decision *model.Decision) (*Transition, error) {
	status := types.ActionStatusOpen
	if decision.Confidence < uc.parent.matcher.TentativeThreshold() {
		status = types.ActionStatusTentative
	}

	action := &model.Action{
		ConversationID: msg.ConversationID,
		Type:           candidate.Type,
		TaskKey:        candidate.TaskKey,
		TaskText:       candidate.TaskText,
		Owner:          candidate.Owner,
		Status:         status,
		Confidence:     decision.Confidence,
		Metadata:       candidate.Metadata.Clone(),
	}
	entry := &model.HistoryEntry{
		EventType:         types.EventTypeCreated,
		NewStatus:         status,
		ConfidenceAtEvent: decision.Confidence,
		SourceMessageID:   msg.ID,
		Reason:            decision.Reason,
		Actor:             model.ActorSystem,
	}

	created, appended, err := uc.parent.createAction(ctx, action, entry)
	if err != nil {
		return nil, err
	}

	return &Transition{
		Action:     created,
		Entry:      appended,
		Decision:   decision.Kind,
		Confidence: decision.Confidence,
	}, nil
}

func (uc *ChatUseCase) matchExisting(ctx context.Context, msg *model.Message, candidate *model.Candidate, decision *model.Decision) (*Transition, error) {
	target := decision.Action
	confident := decision.Confidence >= uc.parent.matcher.TentativeThreshold()

	updated := target.Clone()
	updated.Confidence = decision.Confidence
	updated.Metadata = target.Metadata.Merge(candidate.Metadata)

	entry := &model.HistoryEntry{
		ActionID:          target.ID,
		PreviousStatus:    target.Status,
		ConfidenceAtEvent: decision.Confidence,
		SourceMessageID:   msg.ID,
		Reason:            decision.Reason,
		Actor:             model.ActorSystem,
	}

	switch {
	case candidate.Hint == types.StatusHintClose && confident:
		// A completion report on a confidently matched action closes it.
		// Low-confidence completion claims never close anything.
		updated.Status = types.ActionStatusClosed
		entry.EventType = types.EventTypeClosed
		entry.NewStatus = types.ActionStatusClosed
		entry.Reason = "completion reported in conversation"
	case confident:
		// A confident re-mention confirms the action. TENTATIVE actions
		// are promoted; OPEN actions stay OPEN.
		updated.Status = types.ActionStatusOpen
		entry.EventType = types.EventTypeMatched
		entry.NewStatus = types.ActionStatusOpen
	default:
		// Below the confidence bound the match is recorded but the status
		// is kept as-is. An OPEN action is never demoted to TENTATIVE.
		entry.EventType = types.EventTypeTentativeMatched
		entry.NewStatus = target.Status
	}

	committed, appended, err := uc.parent.commit(ctx, updated, entry)
	if err != nil {
		return nil, err
	}

	return &Transition{
		Action:     committed,
		Entry:      appended,
		Decision:   decision.Kind,
		Confidence: decision.Confidence,
	}, nil
}
