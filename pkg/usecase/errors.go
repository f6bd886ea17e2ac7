package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrActionNotFound  = errors.New("action not found")
	ErrMessageNotFound = errors.New("message not found")

	// Validation errors: malformed input, rejected before anything persists
	ErrValidation = errors.New("invalid input")

	// Integrity errors: an audit append observed a stale previous status.
	// The caller must retry the whole atomic unit with a fresh read.
	ErrIntegrity = errors.New("audit trail integrity conflict")

	// Transition errors: close/merge attempted on a terminal action
	ErrIllegalTransition = errors.New("illegal action state transition")
)

// Context keys for error values
const (
	ActionIDKey       = "action_id"
	ConversationIDKey = "conversation_id"
	MessageIDKey      = "message_id"
)
