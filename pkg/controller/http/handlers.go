package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/usecase"
	"github.com/docket-lab/docket/pkg/utils/errutil"
	"github.com/docket-lab/docket/pkg/utils/logging"
)

// statusFor maps use case sentinel errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrActionNotFound),
		errors.Is(err, usecase.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrIntegrity),
		errors.Is(err, usecase.ErrIllegalTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
}

func actionIDParam(r *http.Request) (types.ActionID, error) {
	raw := chi.URLParam(r, "actionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(usecase.ErrValidation, "invalid action ID", goerr.V("raw", raw))
	}
	return types.ActionID(id), nil
}

type metadataResponse struct {
	PANNumber   string   `json:"pan_number,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	Deliverable string   `json:"deliverable,omitempty"`
}

type actionResponse struct {
	ID             int64            `json:"id"`
	ConversationID string           `json:"conversation_id"`
	Type           string           `json:"type"`
	TaskKey        string           `json:"task_key"`
	TaskText       string           `json:"task_text"`
	Owner          string           `json:"owner"`
	Status         string           `json:"status"`
	Confidence     float64          `json:"confidence"`
	Metadata       metadataResponse `json:"metadata"`
	MergedInto     int64            `json:"merged_into,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func toActionResponse(a *model.Action) actionResponse {
	return actionResponse{
		ID:             int64(a.ID),
		ConversationID: a.ConversationID.String(),
		Type:           a.Type.String(),
		TaskKey:        a.TaskKey.String(),
		TaskText:       a.TaskText,
		Owner:          a.Owner.String(),
		Status:         a.Status.String(),
		Confidence:     a.Confidence,
		Metadata: metadataResponse{
			PANNumber:   a.Metadata.PANNumber,
			URLs:        a.Metadata.URLs,
			Deliverable: a.Metadata.Deliverable.String(),
		},
		MergedInto: int64(a.MergedInto),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type historyEntryResponse struct {
	ID                int64     `json:"id"`
	ActionID          int64     `json:"action_id"`
	EventType         string    `json:"event_type"`
	PreviousStatus    string    `json:"previous_status,omitempty"`
	NewStatus         string    `json:"new_status"`
	ConfidenceAtEvent float64   `json:"confidence_at_event"`
	SourceMessageID   string    `json:"source_message_id,omitempty"`
	MergedInto        int64     `json:"merged_into,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	Actor             string    `json:"actor"`
	CreatedAt         time.Time `json:"created_at"`
}

func toHistoryEntryResponse(e *model.HistoryEntry) historyEntryResponse {
	return historyEntryResponse{
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

type chatMessageRequest struct {
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

type chatRequest struct {
	ConversationID string               `json:"conversation_id"`
	Messages       []chatMessageRequest `json:"messages"`
}

type transitionResponse struct {
	Action     actionResponse       `json:"action"`
	Entry      historyEntryResponse `json:"entry"`
	Decision   string               `json:"decision"`
	Confidence float64              `json:"confidence"`
}

type chatMessageResponse struct {
	MessageID   string               `json:"message_id"`
	Duplicate   bool                 `json:"duplicate"`
	Candidates  int                  `json:"candidates"`
	Transitions []transitionResponse `json:"transitions"`
}

type chatResponse struct {
	ConversationID string                `json:"conversation_id"`
	Summary        string                `json:"summary"`
	Created        int                   `json:"created"`
	Matched        int                   `json:"matched"`
	Closed         int                   `json:"closed"`
	Tentative      int                   `json:"tentative"`
	Duplicates     int                   `json:"duplicates"`
	Messages       []chatMessageResponse `json:"messages"`
}

func (s *Server) handleProcessChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, goerr.Wrap(usecase.ErrValidation, "malformed request body"))
		return
	}

	incoming := make([]usecase.IncomingMessage, len(req.Messages))
	for i, m := range req.Messages {
		incoming[i] = usecase.IncomingMessage{
			Sender:     types.Owner(m.Sender),
			Text:       m.Text,
			ReceivedAt: m.ReceivedAt,
		}
	}

	result, err := s.uc.Chat.ProcessChat(r.Context(), types.ConversationID(req.ConversationID), incoming)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := chatResponse{
		ConversationID: result.ConversationID.String(),
		Summary:        result.Summary(),
		Created:        result.Created,
		Matched:        result.Matched,
		Closed:         result.Closed,
		Tentative:      result.Tentative,
		Duplicates:     result.Duplicates,
		Messages:       make([]chatMessageResponse, len(result.Messages)),
	}
	for i, mr := range result.Messages {
		mresp := chatMessageResponse{
			MessageID:  mr.Message.ID.String(),
			Duplicate:  mr.Duplicate,
			Candidates: mr.Candidates,
		}
		for _, tr := range mr.Transitions {
			mresp.Transitions = append(mresp.Transitions, transitionResponse{
				Action:     toActionResponse(tr.Action),
				Entry:      toHistoryEntryResponse(tr.Entry),
				Decision:   string(tr.Decision),
				Confidence: tr.Confidence,
			})
		}
		resp.Messages[i] = mresp
	}

	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opt := interfaces.ListActionsOptions{
		ConversationID: types.ConversationID(q.Get("conversation_id")),
		Status:         types.ActionStatus(q.Get("status")),
		Type:           types.ActionType(q.Get("type")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, r, goerr.Wrap(usecase.ErrValidation, "invalid limit", goerr.V("raw", raw)))
			return
		}
		opt.Limit = limit
	}

	actions, err := s.uc.Action.List(r.Context(), opt)
	if err != nil {
		respondError(w, r, err)
		return
	}

	type listedAction struct {
		actionResponse
		LatestEvent *historyEntryResponse `json:"latest_event,omitempty"`
	}
	resp := struct {
		Actions []listedAction `json:"actions"`
	}{Actions: make([]listedAction, len(actions))}
	for i, a := range actions {
		resp.Actions[i] = listedAction{actionResponse: toActionResponse(a)}
		latest, err := s.uc.Action.LatestEvent(r.Context(), a.ID)
		if err != nil {
			logging.From(r.Context()).Warn("failed to load latest event",
				"action_id", a.ID, "error", err)
			continue
		}
		if latest != nil {
			e := toHistoryEntryResponse(latest)
			resp.Actions[i].LatestEvent = &e
		}
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	id, err := actionIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	action, err := s.uc.Action.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toActionResponse(action))
}

func (s *Server) handleActionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := actionIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := s.uc.Action.History(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := struct {
		Entries []historyEntryResponse `json:"entries"`
	}{Entries: make([]historyEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = toHistoryEntryResponse(e)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleCloseAction(w http.ResponseWriter, r *http.Request) {
	id, err := actionIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, r, goerr.Wrap(usecase.ErrValidation, "malformed request body"))
			return
		}
	}

	action, err := s.uc.Action.Close(r.Context(), id, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toActionResponse(action))
}

func (s *Server) handleMergeAction(w http.ResponseWriter, r *http.Request) {
	id, err := actionIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		TargetID int64  `json:"target_id"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, goerr.Wrap(usecase.ErrValidation, "malformed request body"))
		return
	}
	if req.TargetID <= 0 {
		respondError(w, r, goerr.Wrap(usecase.ErrValidation, "target_id is required"))
		return
	}

	action, err := s.uc.Action.Merge(r.Context(), id, types.ActionID(req.TargetID), req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toActionResponse(action))
}
