package types

import "github.com/m-mizutani/goerr/v2"

// EventType represents the kind of lifecycle event recorded in the audit trail
type EventType string

const (
	EventTypeCreated          EventType = "CREATED"
	EventTypeMatched          EventType = "MATCHED"
	EventTypeTentativeMatched EventType = "TENTATIVE_MATCHED"
	EventTypeClosed           EventType = "CLOSED"
	EventTypeMerged           EventType = "MERGED"
)

// AllEventTypes returns all valid event types
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeCreated,
		EventTypeMatched,
		EventTypeTentativeMatched,
		EventTypeClosed,
		EventTypeMerged,
	}
}

// IsValid checks if the event type is valid
func (e EventType) IsValid() bool {
	switch e {
	case EventTypeCreated,
		EventTypeMatched,
		EventTypeTentativeMatched,
		EventTypeClosed,
		EventTypeMerged:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// ParseEventType parses a string into an EventType
func ParseEventType(s string) (EventType, error) {
	e := EventType(s)
	if !e.IsValid() {
		return "", goerr.New("invalid event type", goerr.V("event_type", s))
	}
	return e, nil
}
