package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	// DefaultBatchSize is the provider ceiling on documents per embedding call.
	DefaultBatchSize = 100
	maxResumeRunes   = 8000

	similarityThreshold = 0.3
	excellentSimilarity = 0.7
	goodSimilarity      = 0.5
	potentialSimilarity = 0.35
)

// SemanticScorer ranks postings by embedding similarity to the resume.
type SemanticScorer struct {
	embedder  ai.Embedder
	batchSize int
	logger    *zap.Logger
}

func NewSemanticScorer(embedder ai.Embedder, batchSize int, logger *zap.Logger) *SemanticScorer {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticScorer{
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Score embeds the resume and every posting and keeps those with similarity
// above the threshold, best first. Any provider failure is returned as is.
func (s *SemanticScorer) Score(ctx context.Context, resume Resume, postings []*jobs.Posting) ([]Result, error) {
	if s == nil || s.embedder == nil {
		return nil, errors.New("semantic scorer has no embedder")
	}

	postings = compact(postings)
	if len(postings) == 0 {
		return []Result{}, nil
	}

	resumeDoc, truncated := utils.TruncateRunes(resume.Text, maxResumeRunes)
	if truncated {
		s.logger.Debug("resume truncated for embedding", zap.Int("max_runes", maxResumeRunes))
	}

	docs := make([]string, 0, len(postings)+1)
	docs = append(docs, resumeDoc)
	for _, job := range postings {
		docs = append(docs, JobDocument(job))
	}

	vectors, err := s.embedAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	type scored struct {
		job        *jobs.Posting
		similarity float64
	}

	ranked := make([]scored, len(postings))
	for i, job := range postings {
		ranked[i] = scored{job: job, similarity: CosineSimilarity(vectors[0], vectors[i+1])}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		if r.similarity <= similarityThreshold {
			continue
		}
		results = append(results, Result{
			Job:    r.job,
			Score:  roundScore(r.similarity * 100),
			Reason: semanticReason(r.similarity, r.job),
		})
	}

	return results, nil
}

// embedAll requests embeddings batch by batch, in order.
func (s *SemanticScorer) embedAll(ctx context.Context, docs []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch, err := s.embedder.Embed(ctx, docs[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed documents %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: batch %d-%d returned %d vectors", ai.ErrMalformedResponse, start, end-1, len(batch))
		}

		s.logger.Debug("embedding batch done",
			zap.Int("start", start),
			zap.Int("size", end-start),
		)

		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// JobDocument renders the text embedded for a posting.
func JobDocument(job *jobs.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Department: %s\n", job.Department)
	fmt.Fprintf(&b, "Level: %s\n", job.Level)
	fmt.Fprintf(&b, "Location: %s\n", job.Location)
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(nonBlank(job.Skills), ", "))
	fmt.Fprintf(&b, "Description: %s", job.Description)
	return b.String()
}

// CosineSimilarity returns dot(a,b)/(|a||b|). A zero-norm vector or a
// dimension mismatch yields 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func semanticReason(similarity float64, job *jobs.Posting) string {
	switch {
	case similarity > excellentSimilarity:
		return fmt.Sprintf("Excellent match: your background closely fits the %s role.", job.Title)
	case similarity > goodSimilarity:
		return fmt.Sprintf("Good match: your experience is relevant to the %s role.", job.Title)
	case similarity > potentialSimilarity:
		return fmt.Sprintf("Potential match: parts of your profile relate to %s work.", job.Department)
	default:
		return fmt.Sprintf("Partial match with the %s role.", job.Title)
	}
}
