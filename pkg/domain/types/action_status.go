package types

import "github.com/m-mizutani/goerr/v2"

// ActionStatus represents the lifecycle status of an action
type ActionStatus string

const (
	ActionStatusOpen      ActionStatus = "OPEN"
	ActionStatusTentative ActionStatus = "TENTATIVE"
	ActionStatusClosed    ActionStatus = "CLOSED"
	ActionStatusMerged    ActionStatus = "MERGED"
)

// AllActionStatuses returns all valid action statuses
func AllActionStatuses() []ActionStatus {
	return []ActionStatus{
		ActionStatusOpen,
		ActionStatusTentative,
		ActionStatusClosed,
		ActionStatusMerged,
	}
}

// IsValid checks if the action status is valid
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusOpen,
		ActionStatusTentative,
		ActionStatusClosed,
		ActionStatusMerged:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions.
// CLOSED and MERGED actions never change again.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusClosed || s == ActionStatusMerged
}

// IsOpen reports whether an action in this status participates in matching
func (s ActionStatus) IsOpen() bool {
	return s == ActionStatusOpen || s == ActionStatusTentative
}

// String returns the string representation of the action status
func (s ActionStatus) String() string {
	return string(s)
}

// ParseActionStatus parses a string into an ActionStatus
func ParseActionStatus(s string) (ActionStatus, error) {
	status := ActionStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid action status", goerr.V("status", s))
	}
	return status, nil
}
