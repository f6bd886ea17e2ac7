package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// Candidate is an unconfirmed extraction result before matching is applied
type Candidate struct {
	Type        types.ActionType
	Confidence  float64
	MatchedSpan string
	TaskKey     types.TaskKey
	TaskText    string
	Owner       types.Owner
	Hint        types.StatusHint
	Metadata    Metadata
}

// Validate checks that the candidate carries the fields the matcher depends
// on. A failure here indicates an extractor defect, not bad user input.
func (c *Candidate) Validate() error {
	if !c.Type.IsValid() {
		return goerr.New("candidate has invalid action type", goerr.V("type", c.Type))
	}
	if c.TaskKey == "" {
		return goerr.New("candidate has empty task key", goerr.V("type", c.Type))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return goerr.New("candidate confidence out of range",
			goerr.V("type", c.Type), goerr.V("confidence", c.Confidence))
	}
	return nil
}
