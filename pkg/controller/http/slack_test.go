package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/docket-lab/docket/pkg/controller/http"
	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/repository/memory"
	"github.com/docket-lab/docket/pkg/usecase"
)

const testSigningSecret = "test-signing-secret"

func newSlackServer(t *testing.T, rmUserIDs []string) (*httpctrl.Server, *usecase.UseCases) {
	t.Helper()
	uc, err := usecase.New(memory.New())
	gt.NoError(t, err).Required()

	handler := httpctrl.NewSlackWebhookHandler(uc.Chat, rmUserIDs)
	return httpctrl.New(uc, httpctrl.WithSlackWebhook(handler, testSigningSecret)), uc
}

func slackSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signedSlackRequest(t *testing.T, body []byte, timestamp, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", signature)
	return req
}

func TestSlackSignatureVerification(t *testing.T) {
	body := []byte(`{"type":"url_verification","challenge":"test-challenge"}`)

	t.Run("valid signature passes", func(t *testing.T) {
		srv, _ := newSlackServer(t, nil)
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req := signedSlackRequest(t, body, ts, slackSignature(testSigningSecret, ts, body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.String()).Equal("test-challenge")
	})

	t.Run("wrong signature rejected", func(t *testing.T) {
		srv, _ := newSlackServer(t, nil)
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req := signedSlackRequest(t, body, ts, slackSignature("wrong-secret", ts, body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("stale timestamp rejected", func(t *testing.T) {
		srv, _ := newSlackServer(t, nil)
		ts := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		req := signedSlackRequest(t, body, ts, slackSignature(testSigningSecret, ts, body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("missing headers rejected", func(t *testing.T) {
		srv, _ := newSlackServer(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})
}

func slackMessageEvent(channel, user, text, ts string) []byte {
	return fmt.Appendf(nil, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"channel": %q,
			"user": %q,
			"text": %q,
			"ts": %q
		}
	}`, channel, user, text, ts)
}

func TestSlackMessageIngestion(t *testing.T) {
	srv, uc := newSlackServer(t, []string{"U_RM"})

	body := slackMessageEvent("C123456", "U_RM", "Please share your PAN card", "1726000000.000200")
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := signedSlackRequest(t, body, ts, slackSignature(testSigningSecret, ts, body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	// Processing runs in the background after the fast 200
	action := waitForAction(t, uc, "C123456")
	gt.Value(t, action.TaskKey.String()).Equal("C123456:PAN_CARD")
	gt.Value(t, action.Owner.String()).Equal("client")
}

func TestSlackIgnoresBotAndEdits(t *testing.T) {
	srv, uc := newSlackServer(t, nil)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	bodies := [][]byte{
		[]byte(`{"type":"event_callback","event":{"type":"message","channel":"C999","bot_id":"B001","text":"Please share your PAN card","ts":"1726000000.000200"}}`),
		[]byte(`{"type":"event_callback","event":{"type":"message","channel":"C999","user":"U001","subtype":"message_changed","text":"Please share your PAN card","ts":"1726000000.000200"}}`),
		[]byte(`{"type":"event_callback","event":{"type":"message","channel":"C999","user":"U001","text":"   ","ts":"1726000000.000200"}}`),
	}
	for _, body := range bodies {
		req := signedSlackRequest(t, body, ts, slackSignature(testSigningSecret, ts, body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	}

	time.Sleep(200 * time.Millisecond)
	actions, err := uc.Action.List(context.Background(), interfaces.ListActionsOptions{
		ConversationID: "C999",
	})
	gt.NoError(t, err).Required()
	gt.A(t, actions).Length(0)
}

func waitForAction(t *testing.T, uc *usecase.UseCases, conversationID types.ConversationID) *model.Action {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		actions, err := uc.Action.List(context.Background(), interfaces.ListActionsOptions{
			ConversationID: conversationID,
		})
		gt.NoError(t, err).Required()
		if len(actions) == 1 {
			return actions[0]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for background processing")
	return nil
}
