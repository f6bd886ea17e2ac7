package match

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/model"
)

// ErrInvalidCandidate indicates a candidate missing the fields matching
// depends on. It signals an extractor defect, never bad user input, and is
// never silently swallowed.
var ErrInvalidCandidate = errors.New("invalid candidate")

// Default thresholds
const (
	DefaultFuzzyThreshold     = 0.6
	DefaultTentativeThreshold = 0.6
)

// Matcher reconciles candidates against the open actions of a conversation.
// Decisions are deterministic: exact task-key identity wins over fuzzy
// similarity, which wins over creating a new action.
type Matcher struct {
	fuzzyThreshold     float64
	tentativeThreshold float64
}

type Option func(*Matcher)

// WithFuzzyThreshold sets the minimum similarity for a fuzzy match
func WithFuzzyThreshold(v float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = v
	}
}

// WithTentativeThreshold sets the confidence below which actions are created
// or kept as TENTATIVE
func WithTentativeThreshold(v float64) Option {
	return func(m *Matcher) {
		m.tentativeThreshold = v
	}
}

func New(opts ...Option) *Matcher {
	m := &Matcher{
		fuzzyThreshold:     DefaultFuzzyThreshold,
		tentativeThreshold: DefaultTentativeThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TentativeThreshold returns the configured tentative confidence bound
func (m *Matcher) TentativeThreshold() float64 {
	return m.tentativeThreshold
}

// Match classifies a candidate against the open (OPEN or TENTATIVE) actions
// of its conversation. The caller must pass only open actions; terminal
// actions are never matched against.
func (m *Matcher) Match(candidate *model.Candidate, openActions []*model.Action) (*model.Decision, error) {
	if err := candidate.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidCandidate, err.Error())
	}

	if exact := m.findExact(candidate, openActions); exact != nil {
		return &model.Decision{
			Kind:       model.DecisionExact,
			Action:     exact,
			Confidence: 1.0,
			Reason:     "exact task key match",
		}, nil
	}

	if best, similarity := m.findFuzzy(candidate, openActions); best != nil {
		return &model.Decision{
			Kind:       model.DecisionFuzzy,
			Action:     best,
			Confidence: candidate.Confidence * similarity,
			Reason:     fmt.Sprintf("fuzzy match: %.2f", similarity),
		}, nil
	}

	return &model.Decision{
		Kind:       model.DecisionNew,
		Confidence: candidate.Confidence,
		Reason:     "no open action matched",
	}, nil
}

// findExact returns the open action sharing the candidate's task key.
// Multiple exact matches should not occur given the task key invariant; if a
// rule-set defect produces them anyway, the most recently updated one wins.
func (m *Matcher) findExact(candidate *model.Candidate, openActions []*model.Action) *model.Action {
	var best *model.Action
	for _, action := range openActions {
		if action.TaskKey != candidate.TaskKey {
			continue
		}
		if best == nil || action.UpdatedAt.After(best.UpdatedAt) ||
			(action.UpdatedAt.Equal(best.UpdatedAt) && action.ID > best.ID) {
			best = action
		}
	}
	return best
}

// findFuzzy returns the same-type open action with the highest similarity at
// or above the fuzzy threshold
func (m *Matcher) findFuzzy(candidate *model.Candidate, openActions []*model.Action) (*model.Action, float64) {
	var best *model.Action
	bestScore := 0.0

	for _, action := range openActions {
		if action.Type != candidate.Type {
			continue
		}
		score := Similarity(candidate, action)
		if score < m.fuzzyThreshold {
			continue
		}
		if score > bestScore || (score == bestScore && best != nil && action.UpdatedAt.After(best.UpdatedAt)) {
			best = action
			bestScore = score
		}
	}

	return best, bestScore
}
