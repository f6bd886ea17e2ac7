package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/docket-lab/docket/pkg/controller/http"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/repository/memory"
	"github.com/docket-lab/docket/pkg/usecase"
)

func newServer(t *testing.T, opts ...httpctrl.Options) (*httpctrl.Server, *usecase.UseCases) {
	t.Helper()
	uc, err := usecase.New(memory.New())
	gt.NoError(t, err).Required()
	return httpctrl.New(uc, opts...), uc
}

func postJSON(t *testing.T, srv *httpctrl.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	gt.NoError(t, err).Required()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, srv *httpctrl.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func chatBody(text string) map[string]any {
	return map[string]any{
		"conversation_id": "conv-http",
		"messages": []map[string]any{
			{"sender": "rm", "text": text, "received_at": time.Now().Format(time.RFC3339)},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	rec := getPath(t, srv, "/health")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
}

func TestChatEndpoint(t *testing.T) {
	t.Run("processes a batch", func(t *testing.T) {
		srv, _ := newServer(t)
		rec := postJSON(t, srv, "/api/chat", chatBody("Please share your PAN card"))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Summary string `json:"summary"`
			Created int    `json:"created"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Number(t, resp.Created).Equal(1)
		gt.B(t, resp.Summary != "").True()
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		srv, _ := newServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{broken")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("invalid sender returns 400", func(t *testing.T) {
		srv, _ := newServer(t)
		body := map[string]any{
			"conversation_id": "conv-http",
			"messages":        []map[string]any{{"sender": "bot", "text": "hello"}},
		}
		rec := postJSON(t, srv, "/api/chat", body)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestActionEndpoints(t *testing.T) {
	srv, uc := newServer(t)
	ctx := context.Background()

	result, err := uc.Chat.ProcessChat(ctx, "conv-http", []usecase.IncomingMessage{
		{Sender: types.OwnerRM, Text: "Please share your PAN card", ReceivedAt: time.Now()},
	})
	gt.NoError(t, err).Required()
	id := result.Messages[0].Transitions[0].Action.ID

	t.Run("list actions", func(t *testing.T) {
		rec := getPath(t, srv, "/api/actions/?conversation_id=conv-http")
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Actions []struct {
				ID          int64  `json:"id"`
				Status      string `json:"status"`
				LatestEvent *struct {
					EventType string `json:"event_type"`
				} `json:"latest_event"`
			} `json:"actions"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.A(t, resp.Actions).Length(1)
		gt.Value(t, resp.Actions[0].Status).Equal("OPEN")
		gt.Value(t, resp.Actions[0].LatestEvent.EventType).Equal("CREATED")
	})

	t.Run("get action", func(t *testing.T) {
		rec := getPath(t, srv, fmt.Sprintf("/api/actions/%d/", id))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			TaskKey string `json:"task_key"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.TaskKey).Equal("conv-http:PAN_CARD")
	})

	t.Run("unknown action returns 404", func(t *testing.T) {
		rec := getPath(t, srv, "/api/actions/99999/")
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("invalid ID returns 400", func(t *testing.T) {
		rec := getPath(t, srv, "/api/actions/not-a-number/")
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("action history", func(t *testing.T) {
		rec := getPath(t, srv, fmt.Sprintf("/api/actions/%d/history", id))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Entries []struct {
				EventType string `json:"event_type"`
			} `json:"entries"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.A(t, resp.Entries).Length(1)
		gt.Value(t, resp.Entries[0].EventType).Equal("CREATED")
	})

	t.Run("close and conflict on re-close", func(t *testing.T) {
		rec := postJSON(t, srv, fmt.Sprintf("/api/actions/%d/close", id), map[string]any{"reason": "done"})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		rec = postJSON(t, srv, fmt.Sprintf("/api/actions/%d/close", id), map[string]any{})
		gt.Number(t, rec.Code).Equal(http.StatusConflict)
	})
}

func TestMergeEndpoint(t *testing.T) {
	srv, uc := newServer(t)
	ctx := context.Background()

	result, err := uc.Chat.ProcessChat(ctx, "conv-http", []usecase.IncomingMessage{
		{Sender: types.OwnerRM, Text: "Please share your PAN card", ReceivedAt: time.Now()},
		{Sender: types.OwnerRM, Text: "Also need your passport size photo", ReceivedAt: time.Now().Add(time.Minute)},
	})
	gt.NoError(t, err).Required()
	sourceID := result.Messages[0].Transitions[0].Action.ID
	targetID := result.Messages[1].Transitions[0].Action.ID

	t.Run("missing target returns 400", func(t *testing.T) {
		rec := postJSON(t, srv, fmt.Sprintf("/api/actions/%d/merge", sourceID), map[string]any{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("merge succeeds", func(t *testing.T) {
		rec := postJSON(t, srv, fmt.Sprintf("/api/actions/%d/merge", sourceID), map[string]any{
			"target_id": int64(targetID),
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Status     string `json:"status"`
			MergedInto int64  `json:"merged_into"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Status).Equal("MERGED")
		gt.Value(t, resp.MergedInto).Equal(int64(targetID))
	})

	t.Run("merging into a merged target conflicts", func(t *testing.T) {
		third, err := uc.Chat.ProcessChat(ctx, "conv-http", []usecase.IncomingMessage{
			{Sender: types.OwnerRM, Text: "And a bank statement please", ReceivedAt: time.Now().Add(2 * time.Minute)},
		})
		gt.NoError(t, err).Required()
		thirdID := third.Messages[0].Transitions[0].Action.ID

		rec := postJSON(t, srv, fmt.Sprintf("/api/actions/%d/merge", thirdID), map[string]any{
			"target_id": int64(sourceID),
		})
		gt.Number(t, rec.Code).Equal(http.StatusConflict)
	})
}
