package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack/slackevents"

	"github.com/docket-lab/docket/pkg/domain/types"
	"github.com/docket-lab/docket/pkg/usecase"
	"github.com/docket-lab/docket/pkg/utils/async"
	"github.com/docket-lab/docket/pkg/utils/errutil"
	"github.com/docket-lab/docket/pkg/utils/logging"
	"github.com/docket-lab/docket/pkg/utils/safe"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const slackBodyKey contextKey = "slack_body"

// verifySlackSignature verifies the Slack request signature.
// This is a pure function that can be used independently for testing.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}
	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}
	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return goerr.New("signature mismatch")
	}
	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer safe.Close(ctx, r.Body)

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Store body in context and restore it to the request
			ctx = context.WithValue(ctx, slackBodyKey, body)
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SlackWebhookHandler ingests Slack Events API messages into the engine.
// Each Slack channel maps to one conversation; senders listed as RM users
// are recorded as the RM side, everyone else as the client side.
type SlackWebhookHandler struct {
	chat    *usecase.ChatUseCase
	rmUsers map[string]bool
}

// NewSlackWebhookHandler creates a new Slack webhook handler
func NewSlackWebhookHandler(chat *usecase.ChatUseCase, rmUserIDs []string) *SlackWebhookHandler {
	rm := make(map[string]bool, len(rmUserIDs))
	for _, id := range rmUserIDs {
		rm[id] = true
	}
	return &SlackWebhookHandler{
		chat:    chat,
		rmUsers: rm,
	}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		h.handleCallback(ctx, event)
		// Slack expects a fast 200; processing continues in the background
		w.WriteHeader(http.StatusOK)

	default:
		logging.From(ctx).Debug("ignoring slack event", "type", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackWebhookHandler) handleCallback(ctx context.Context, event slackevents.EventsAPIEvent) {
	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logging.From(ctx).Debug("ignoring non-message callback",
			"inner_type", event.InnerEvent.Type)
		return
	}

	// Bot echoes and message edits would reprocess content we already saw
	if msg.BotID != "" || msg.SubType != "" {
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	sender := types.OwnerClient
	if h.rmUsers[msg.User] {
		sender = types.OwnerRM
	}

	incoming := usecase.IncomingMessage{
		Sender:     sender,
		Text:       msg.Text,
		ReceivedAt: slackTimestamp(msg.TimeStamp),
	}
	conversationID := types.ConversationID(msg.Channel)

	async.Dispatch(ctx, func(ctx context.Context) error {
		result, err := h.chat.ProcessChat(ctx, conversationID, []usecase.IncomingMessage{incoming})
		if err != nil {
			return goerr.Wrap(err, "failed to process slack message",
				goerr.V("channel", msg.Channel))
		}
		logging.From(ctx).Info("processed slack message",
			"channel", msg.Channel,
			"summary", result.Summary(),
		)
		return nil
	})
}

// slackTimestamp converts a Slack event timestamp ("1726000000.000200")
// into a time.Time. Malformed values fall back to the current time.
func slackTimestamp(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	var ns int64
	if frac != "" {
		if f, err := strconv.ParseFloat("0."+frac, 64); err == nil {
			ns = int64(f * float64(time.Second))
		}
	}
	return time.Unix(s, ns).UTC()
}
