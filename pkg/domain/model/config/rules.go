package config

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-lab/docket/pkg/domain/types"
)

// RuleSet is the extraction rule configuration. It is loaded from a TOML file
// or falls back to the built-in default set.
type RuleSet struct {
	Rules        []Rule        `toml:"rule"`
	Verbs        Verbs         `toml:"verbs"`
	Deliverables []Deliverable `toml:"deliverable"`
	Fallback     Fallback      `toml:"fallback"`
}

// Rule maps text patterns to one action type with a base confidence
type Rule struct {
	Type       string   `toml:"type"`
	Patterns   []string `toml:"patterns"`
	Confidence float64  `toml:"confidence"`
}

// Validate checks if the Rule is valid
func (r *Rule) Validate() error {
	if _, err := types.ParseActionType(r.Type); err != nil {
		return goerr.Wrap(err, "invalid rule type")
	}
	if len(r.Patterns) == 0 {
		return goerr.New("rule has no patterns", goerr.V("type", r.Type))
	}
	for _, p := range r.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return goerr.Wrap(err, "invalid rule pattern",
				goerr.V("type", r.Type), goerr.V("pattern", p))
		}
	}
	if r.Confidence <= 0 || r.Confidence > 1 {
		return goerr.New("rule confidence must be in (0, 1]",
			goerr.V("type", r.Type), goerr.V("confidence", r.Confidence))
	}
	return nil
}

// Verbs are the intent word lists used to derive status hints
type Verbs struct {
	Request      []string `toml:"request"`
	Completion   []string `toml:"completion"`
	Modification []string `toml:"modification"`
}

// Deliverable maps text patterns to an expected deliverable type
type Deliverable struct {
	Type     string   `toml:"type"`
	Patterns []string `toml:"patterns"`
}

// Validate checks if the Deliverable is valid
func (d *Deliverable) Validate() error {
	if !types.DeliverableType(d.Type).IsValid() {
		return goerr.New("invalid deliverable type", goerr.V("type", d.Type))
	}
	for _, p := range d.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return goerr.Wrap(err, "invalid deliverable pattern",
				goerr.V("type", d.Type), goerr.V("pattern", p))
		}
	}
	return nil
}

// Fallback configures the generic-document rule that fires when no typed rule
// matched but the message still carries request or completion language
type Fallback struct {
	Patterns   []string `toml:"patterns"`
	Confidence float64  `toml:"confidence"`
}

// Validate checks if the RuleSet is valid
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return goerr.New("rule set has no rules")
	}
	seen := map[string]bool{}
	for i := range rs.Rules {
		if err := rs.Rules[i].Validate(); err != nil {
			return err
		}
		if seen[rs.Rules[i].Type] {
			return goerr.New("duplicate rule type", goerr.V("type", rs.Rules[i].Type))
		}
		seen[rs.Rules[i].Type] = true
	}
	for i := range rs.Deliverables {
		if err := rs.Deliverables[i].Validate(); err != nil {
			return err
		}
	}
	for _, p := range rs.Fallback.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return goerr.Wrap(err, "invalid fallback pattern", goerr.V("pattern", p))
		}
	}
	if rs.Fallback.Confidence < 0 || rs.Fallback.Confidence > 1 {
		return goerr.New("fallback confidence must be in [0, 1]",
			goerr.V("confidence", rs.Fallback.Confidence))
	}
	return nil
}

// DefaultRuleSet returns the built-in extraction rules
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Rules: []Rule{
			{
				Type:       types.ActionTypePANCard.String(),
				Confidence: 0.8,
				Patterns: []string{
					`pan\s+card`, `pan\s+number`, `permanent\s+account\s+number`,
					`pan\s+document`, `pan\s+copy`,
				},
			},
			{
				Type:       types.ActionTypeAadhaar.String(),
				Confidence: 0.8,
				Patterns: []string{
					`aadhaar`, `aadhar`, `unique\s+identification`,
					`aadhaar\s+card`, `aadhaar\s+number`,
				},
			},
			{
				Type:       types.ActionTypeBankStatement.String(),
				Confidence: 0.8,
				Patterns: []string{
					`bank\s+statement`, `bank\s+details`, `account\s+statement`,
					`banking\s+statement`,
				},
			},
			{
				Type:       types.ActionTypeIncomeProof.String(),
				Confidence: 0.8,
				Patterns: []string{
					`income\s+proof`, `salary\s+certificate`, `income\s+certificate`,
					`pay\s+slip`, `salary\s+slip`, `income\s+document`,
				},
			},
			{
				Type:       types.ActionTypeAddressProof.String(),
				Confidence: 0.8,
				Patterns: []string{
					`address\s+proof`, `address\s+document`, `residence\s+proof`,
					`utility\s+bill`, `address\s+certificate`,
				},
			},
			{
				Type:       types.ActionTypePhoto.String(),
				Confidence: 0.8,
				Patterns: []string{
					`photo`, `photograph`, `picture`, `passport\s+size\s+photo`,
					`profile\s+picture`, `headshot`,
				},
			},
			{
				Type:       types.ActionTypeSignature.String(),
				Confidence: 0.8,
				Patterns: []string{
					`signature`, `sign`, `digital\s+signature`, `wet\s+signature`,
				},
			},
		},
		Verbs: Verbs{
			Request:      []string{"send", "provide", "upload", "share", "submit", "give", "furnish"},
			Completion:   []string{"received", "collected", "got", "obtained", "submitted", "uploaded", "here is", "here are"},
			Modification: []string{"update", "change", "modify", "revise", "correct"},
		},
		Deliverables: []Deliverable{
			{Type: types.DeliverablePhoto.String(), Patterns: []string{`photo`, `image`, `picture`, `photograph`}},
			{Type: types.DeliverablePDF.String(), Patterns: []string{`pdf`, `document`, `file`}},
			{Type: types.DeliverableNumber.String(), Patterns: []string{`number`, `no\.`, `#`}},
			{Type: types.DeliverableURL.String(), Patterns: []string{`url`, `link`, `http`, `www`}},
			{Type: types.DeliverableAttachment.String(), Patterns: []string{`attachment`, `attached`, `file`}},
		},
		Fallback: Fallback{
			Confidence: 0.5,
			Patterns:   []string{`document`, `paper`, `certificate`, `proof`, `copy`},
		},
	}
}
