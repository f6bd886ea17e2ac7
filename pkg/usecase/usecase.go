package usecase

import (
	"time"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
	"github.com/docket-lab/docket/pkg/domain/model/config"
	"github.com/docket-lab/docket/pkg/service/extract"
	"github.com/docket-lab/docket/pkg/service/match"
)

// UseCases bundles the engine's use cases over a shared repository and a
// shared per-conversation serialization boundary
type UseCases struct {
	repo        interfaces.Repository
	extractor   *extract.Extractor
	matcher     *match.Matcher
	dedupWindow time.Duration
	locks       *conversationLocks

	Chat   *ChatUseCase
	Action *ActionUseCase
}

type Option func(*UseCases)

// WithExtractor overrides the default rule-set extractor
func WithExtractor(ex *extract.Extractor) Option {
	return func(uc *UseCases) {
		uc.extractor = ex
	}
}

// WithMatcher overrides the default matcher thresholds
func WithMatcher(m *match.Matcher) Option {
	return func(uc *UseCases) {
		uc.matcher = m
	}
}

// WithDedupWindow bounds message deduplication to the given recency window.
// Zero means unbounded: a duplicate is rejected no matter how old the
// original is.
func WithDedupWindow(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.dedupWindow = d
	}
}

func New(repo interfaces.Repository, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		repo:  repo,
		locks: newConversationLocks(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.extractor == nil {
		ex, err := extract.New(config.DefaultRuleSet())
		if err != nil {
			return nil, err
		}
		uc.extractor = ex
	}
	if uc.matcher == nil {
		uc.matcher = match.New()
	}

	uc.Chat = &ChatUseCase{parent: uc}
	uc.Action = &ActionUseCase{parent: uc}

	return uc, nil
}
