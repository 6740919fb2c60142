package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

// Config selects the scoring mode. A nil Embedder means keyword mode only.
type Config struct {
	Embedder ai.Embedder
	// BatchSize caps documents per embedding call. Zero uses DefaultBatchSize.
	BatchSize int
	// Limit caps the number of returned matches. Zero means no cap.
	Limit int
}

// Matcher is the single entry point of the engine. It holds no per-call
// state and is safe for concurrent use.
type Matcher struct {
	keyword  *KeywordScorer
	semantic *SemanticScorer
	limit    int
	logger   *zap.Logger
}

func NewMatcher(cfg Config, l *zap.Logger) *Matcher {
	l = logger.OrNop(l)

	m := &Matcher{
		keyword: NewKeywordScorer(l),
		limit:   cfg.Limit,
		logger:  l,
	}

	if cfg.Embedder != nil {
		m.semantic = NewSemanticScorer(cfg.Embedder, cfg.BatchSize, l)
		m.logger = logger.WithFields(l, logger.CommonFields(cfg.Embedder.Provider(), cfg.Embedder.Model())...)
	}

	return m
}

// Mode reports the preferred mode. Match may still fall back to keyword.
func (m *Matcher) Mode() Mode {
	if m.semantic != nil {
		return ModeSemantic
	}
	return ModeKeyword
}

// Match ranks postings against the resume. Semantic scoring is tried first
// when configured; on failure the keyword scorer runs instead and its output
// alone is returned.
func (m *Matcher) Match(ctx context.Context, resume Resume, postings []*jobs.Posting) *Outcome {
	outcome := m.match(ctx, resume, postings)

	total := len(outcome.Matches)
	if m.limit > 0 && len(outcome.Matches) > m.limit {
		outcome.Matches = outcome.Matches[:m.limit]
	}

	m.logger.Info("match completed",
		logger.MatchFields(string(outcome.Mode), resume.Filename, len(postings), total)...,
	)

	return outcome
}

func (m *Matcher) match(ctx context.Context, resume Resume, postings []*jobs.Posting) *Outcome {
	if m.semantic != nil {
		results, err := m.semantic.Score(ctx, resume, postings)
		if err == nil {
			return &Outcome{Mode: ModeSemantic, Matches: results}
		}

		m.logger.Warn("semantic matching failed, falling back to keyword matching",
			zap.String(logger.FieldErrorKey, ai.Classify(err)),
			zap.Error(err),
		)
	}

	return &Outcome{Mode: ModeKeyword, Matches: m.keyword.Score(resume, postings)}
}
