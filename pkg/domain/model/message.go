package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// Message represents an ingested chat message. Messages are immutable once
// stored and are retained for audit.
type Message struct {
	ID             types.MessageID
	ConversationID types.ConversationID
	Sender         types.Owner
	Text           string `masq:"secret"`
	ContentHash    string
	ReceivedAt     time.Time
	CreatedAt      time.Time
}

// NewMessage creates a Message with a generated ID and its content hash
func NewMessage(conversationID types.ConversationID, sender types.Owner, text string, receivedAt time.Time) *Message {
	return &Message{
		ID:             types.MessageID(uuid.NewString()),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		ContentHash:    ContentHash(conversationID, text),
		ReceivedAt:     receivedAt,
	}
}

// Validate checks if the message is well-formed
func (m *Message) Validate() error {
	if err := m.ConversationID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid message")
	}
	if m.ID == "" {
		return goerr.New("message ID cannot be empty")
	}
	if strings.TrimSpace(m.Text) == "" {
		return goerr.New("message text cannot be empty", goerr.V("message_id", m.ID))
	}
	return nil
}

// ContentHash computes the deduplication hash for a message: SHA-256 over the
// conversation ID and the case-folded, whitespace-collapsed text. Two messages
// differing only in casing or spacing hash identically.
func ContentHash(conversationID types.ConversationID, text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	h := sha256.New()
	h.Write([]byte(conversationID.String()))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
