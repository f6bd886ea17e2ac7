package model

// DecisionKind classifies a matcher outcome
type DecisionKind string

const (
	DecisionNew   DecisionKind = "NEW"
	DecisionExact DecisionKind = "EXACT"
	DecisionFuzzy DecisionKind = "FUZZY"
)

// Decision is the matcher's verdict for one candidate against the open
// actions of its conversation
type Decision struct {
	Kind       DecisionKind
	Action     *Action // the matched existing action; nil for NEW
	Confidence float64 // candidate confidence, scaled by similarity for FUZZY
	Reason     string
}
