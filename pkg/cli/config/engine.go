package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	rulecfg "github.com/docket-lab/docket/pkg/domain/model/config"
	"github.com/docket-lab/docket/pkg/service/extract"
	"github.com/docket-lab/docket/pkg/service/match"
	"github.com/docket-lab/docket/pkg/usecase"
	"github.com/docket-lab/docket/pkg/utils/logging"
)

// Engine holds CLI flags for the extraction and matching engine
type Engine struct {
	ruleSetPath        string
	dedupWindow        time.Duration
	fuzzyThreshold     float64
	tentativeThreshold float64
}

// Flags returns CLI flags for engine configuration
func (e *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rule-set",
			Usage:       "Path to a TOML extraction rule set (built-in rules when empty)",
			Category:    "Engine",
			Sources:     cli.EnvVars("DOCKET_RULE_SET"),
			Destination: &e.ruleSetPath,
		},
		&cli.DurationFlag{
			Name:        "dedup-window",
			Usage:       "Recency window for message deduplication (0 = unbounded)",
			Category:    "Engine",
			Sources:     cli.EnvVars("DOCKET_DEDUP_WINDOW"),
			Destination: &e.dedupWindow,
		},
		&cli.FloatFlag{
			Name:        "fuzzy-threshold",
			Usage:       "Minimum similarity for a fuzzy match",
			Value:       match.DefaultFuzzyThreshold,
			Category:    "Engine",
			Sources:     cli.EnvVars("DOCKET_FUZZY_THRESHOLD"),
			Destination: &e.fuzzyThreshold,
		},
		&cli.FloatFlag{
			Name:        "tentative-threshold",
			Usage:       "Confidence below which actions are created as TENTATIVE",
			Value:       match.DefaultTentativeThreshold,
			Category:    "Engine",
			Sources:     cli.EnvVars("DOCKET_TENTATIVE_THRESHOLD"),
			Destination: &e.tentativeThreshold,
		},
	}
}

// LogValue renders the configuration for startup logging
func (e Engine) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("rule_set", e.ruleSetPath),
		slog.Duration("dedup_window", e.dedupWindow),
		slog.Float64("fuzzy_threshold", e.fuzzyThreshold),
		slog.Float64("tentative_threshold", e.tentativeThreshold),
	)
}

// RuleSet loads the configured rule set, falling back to the built-in rules
func (e *Engine) RuleSet() (*rulecfg.RuleSet, error) {
	if e.ruleSetPath == "" {
		return rulecfg.DefaultRuleSet(), nil
	}

	data, err := os.ReadFile(e.ruleSetPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rule set", goerr.V("path", e.ruleSetPath))
	}

	var rs rulecfg.RuleSet
	if err := toml.Unmarshal(data, &rs); err != nil {
		return nil, goerr.Wrap(err, "failed to parse rule set", goerr.V("path", e.ruleSetPath))
	}
	if err := rs.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid rule set", goerr.V("path", e.ruleSetPath))
	}

	logging.Default().Info("Loaded rule set", "path", e.ruleSetPath, "rules", len(rs.Rules))
	return &rs, nil
}

// Configure builds the use case options for the configured engine
func (e *Engine) Configure() ([]usecase.Option, error) {
	rs, err := e.RuleSet()
	if err != nil {
		return nil, err
	}
	extractor, err := extract.New(rs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile rule set")
	}

	matcher := match.New(
		match.WithFuzzyThreshold(e.fuzzyThreshold),
		match.WithTentativeThreshold(e.tentativeThreshold),
	)

	return []usecase.Option{
		usecase.WithExtractor(extractor),
		usecase.WithMatcher(matcher),
		usecase.WithDedupWindow(e.dedupWindow),
	}, nil
}
