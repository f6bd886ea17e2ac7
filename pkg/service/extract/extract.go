package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/model/config"
	"github.com/docket-lab/docket/pkg/domain/types"
)

var (
	panPattern = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
	urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)
)

type compiledRule struct {
	actionType types.ActionType
	patterns   []*regexp.Regexp
	confidence float64
}

type compiledDeliverable struct {
	deliverable types.DeliverableType
	patterns    []*regexp.Regexp
}

// Extractor applies the configured rule set to message text, producing zero
// or more candidates. Rules are evaluated in configuration order; evaluation
// is pure and deterministic.
type Extractor struct {
	rules        []compiledRule
	deliverables []compiledDeliverable
	fallback     []*regexp.Regexp
	fallbackConf float64
	verbs        config.Verbs
}

// New compiles a rule set into an Extractor
func New(rs *config.RuleSet) (*Extractor, error) {
	if err := rs.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid rule set")
	}

	ex := &Extractor{
		verbs:        rs.Verbs,
		fallbackConf: rs.Fallback.Confidence,
	}

	for _, rule := range rs.Rules {
		cr := compiledRule{
			actionType: types.ActionType(rule.Type),
			confidence: rule.Confidence,
		}
		for _, p := range rule.Patterns {
			cr.patterns = append(cr.patterns, regexp.MustCompile(p))
		}
		ex.rules = append(ex.rules, cr)
	}

	for _, d := range rs.Deliverables {
		cd := compiledDeliverable{deliverable: types.DeliverableType(d.Type)}
		for _, p := range d.Patterns {
			cd.patterns = append(cd.patterns, regexp.MustCompile(p))
		}
		ex.deliverables = append(ex.deliverables, cd)
	}

	for _, p := range rs.Fallback.Patterns {
		ex.fallback = append(ex.fallback, regexp.MustCompile(p))
	}

	return ex, nil
}

// Extract applies the rule set to a message and returns candidate actions.
// An empty result is a normal outcome, not an error.
func (x *Extractor) Extract(msg *model.Message) []*model.Candidate {
	lower := strings.ToLower(msg.Text)
	hint := x.statusHint(msg.Text, lower)
	meta := x.extractMetadata(msg.Text, lower)
	owner := msg.Sender.Counterpart()

	var candidates []*model.Candidate
	for _, rule := range x.rules {
		span, ok := firstMatch(rule.patterns, lower)
		if !ok {
			continue
		}
		candidates = append(candidates, x.newCandidate(
			msg.ConversationID, rule.actionType, rule.confidence, span, owner, hint, meta))
	}

	if len(candidates) == 0 && x.wantsDocument(lower, hint) {
		if span, ok := firstMatch(x.fallback, lower); ok || len(meta.URLs) > 0 {
			candidates = append(candidates, x.newCandidate(
				msg.ConversationID, types.ActionTypeOther, x.fallbackConf, span, owner, hint, meta))
		}
	}

	return candidates
}

func (x *Extractor) newCandidate(conversationID types.ConversationID, actionType types.ActionType,
	confidence float64, span string, owner types.Owner, hint types.StatusHint, meta model.Metadata) *model.Candidate {
	return &model.Candidate{
		Type:        actionType,
		Confidence:  confidence,
		MatchedSpan: span,
		TaskKey:     TaskKey(conversationID, actionType, meta),
		TaskText:    taskText(actionType, meta.Deliverable),
		Owner:       owner,
		Hint:        hint,
		Metadata:    meta.Clone(),
	}
}

// statusHint derives the intended lifecycle effect from intent verbs. A PAN
// number stated declaratively also counts as completion.
func (x *Extractor) statusHint(text, lower string) types.StatusHint {
	isCompletion := containsAny(lower, x.verbs.Completion)
	if panPattern.MatchString(strings.ToUpper(text)) &&
		(strings.Contains(lower, " is ") || strings.Contains(lower, " are ")) {
		isCompletion = true
	}

	if isCompletion {
		return types.StatusHintClose
	}
	if containsAny(lower, x.verbs.Modification) {
		return types.StatusHintModify
	}
	return types.StatusHintNone
}

// wantsDocument reports whether the message carries request or completion
// intent that justifies the generic-document fallback rule
func (x *Extractor) wantsDocument(lower string, hint types.StatusHint) bool {
	return containsAny(lower, x.verbs.Request) || hint == types.StatusHintClose
}

func (x *Extractor) extractMetadata(text, lower string) model.Metadata {
	var meta model.Metadata

	if pan := panPattern.FindString(strings.ToUpper(text)); pan != "" {
		meta.PANNumber = pan
	}
	meta.URLs = urlPattern.FindAllString(text, -1)

	if len(meta.URLs) > 0 {
		meta.Deliverable = types.DeliverableURL
	} else {
		for _, cd := range x.deliverables {
			if _, ok := firstMatch(cd.patterns, lower); ok {
				meta.Deliverable = cd.deliverable
				break
			}
		}
	}

	return meta
}

// TaskKey computes the deterministic identity key for a candidate: the
// conversation and action type, refined by the PAN number when one was
// extracted. Identical-subject candidates from different messages always
// produce the same key.
func TaskKey(conversationID types.ConversationID, actionType types.ActionType, meta model.Metadata) types.TaskKey {
	key := fmt.Sprintf("%s:%s", conversationID, actionType)
	if meta.PANNumber != "" {
		key += ":pan_" + meta.PANNumber
	}
	return types.TaskKey(key)
}

var taskTemplates = map[types.ActionType]string{
	types.ActionTypePANCard:       "Provide PAN card document",
	types.ActionTypeAadhaar:       "Provide Aadhaar card document",
	types.ActionTypeBankStatement: "Provide bank statement",
	types.ActionTypeIncomeProof:   "Provide income proof document",
	types.ActionTypeAddressProof:  "Provide address proof document",
	types.ActionTypePhoto:         "Provide photograph",
	types.ActionTypeSignature:     "Provide signature",
	types.ActionTypeOther:         "Provide requested document",
}

func taskText(actionType types.ActionType, deliverable types.DeliverableType) string {
	text, ok := taskTemplates[actionType]
	if !ok {
		text = taskTemplates[types.ActionTypeOther]
	}

	switch deliverable {
	case types.DeliverablePhoto:
		text += " (photo required)"
	case types.DeliverablePDF:
		text += " (PDF required)"
	case types.DeliverableNumber:
		text += " (number required)"
	}
	return text
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if span := p.FindString(text); span != "" {
			return span, true
		}
	}
	return "", false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
