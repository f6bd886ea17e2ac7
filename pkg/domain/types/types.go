package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// ConversationID identifies a single RM-client conversation. All matching
// decisions are scoped to one conversation.
type ConversationID string

// Validate checks if the ConversationID is valid
func (c ConversationID) Validate() error {
	if c == "" {
		return goerr.New("conversation ID cannot be empty")
	}
	return nil
}

// String returns the string representation of ConversationID
func (c ConversationID) String() string {
	return string(c)
}

// MessageID identifies an ingested chat message
type MessageID string

// String returns the string representation of MessageID
func (m MessageID) String() string {
	return string(m)
}

// ActionID identifies a tracked action
type ActionID int64

// String returns the decimal representation of ActionID
func (a ActionID) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// TaskKey is the deterministic identity key used for exact matching.
// Candidates describing the same subject within a conversation always
// produce the same TaskKey.
type TaskKey string

// String returns the string representation of TaskKey
func (k TaskKey) String() string {
	return string(k)
}
