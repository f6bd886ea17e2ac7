package types

// StatusHint is an extraction-time signal about the intended lifecycle effect
// of a message. Completion language ("received", "submitted") hints that a
// matched action can be closed; modification language hints at a metadata
// refresh. The matcher only honors hints on confident matches.
type StatusHint string

const (
	StatusHintNone   StatusHint = ""
	StatusHintClose  StatusHint = "CLOSE"
	StatusHintModify StatusHint = "MODIFY"
)

// String returns the string representation of the status hint
func (h StatusHint) String() string {
	return string(h)
}
