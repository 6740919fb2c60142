package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	vector func(doc string) []float32
	// failOnCall makes the n-th call (1-based) fail with err.
	failOnCall int
	err        error
	short      bool
	calls      [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, docs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), docs...))
	if f.err != nil && (f.failOnCall == 0 || f.failOnCall == len(f.calls)) {
		return nil, f.err
	}

	out := make([][]float32, 0, len(docs))
	for _, doc := range docs {
		out = append(out, f.vector(doc))
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake-embedding" }

func constantVector(doc string) []float32 {
	return []float32{1, 2, 3}
}

func titledJob(title string) *jobs.Posting {
	return &jobs.Posting{ID: title, Title: title, Department: "Engineering", Level: jobs.LevelMid}
}

func TestSemanticScorerIdenticalEmbeddings(t *testing.T) {
	t.Parallel()

	s := NewSemanticScorer(&fakeEmbedder{vector: constantVector}, 0, nil)
	results, err := s.Score(context.Background(), Resume{Text: "resume"}, []*jobs.Posting{titledJob("Backend Engineer")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].Score != 100 {
		t.Fatalf("expected a single result with score 100, got %+v", results)
	}
	if !strings.HasPrefix(results[0].Reason, "Excellent match") || !strings.Contains(results[0].Reason, "Backend Engineer") {
		t.Fatalf("unexpected reason: %q", results[0].Reason)
	}
}

func TestSemanticScorerRanksAndFilters(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float32{
		"orthogonal": {0, 1},
		"diagonal":   {1, 1},
		"same":       {1, 0},
		"good":       {0.6, 0.8},
		"potential":  {0.4, float32(math.Sqrt(1 - 0.16))},
		"partial":    {0.32, float32(math.Sqrt(1 - 0.32*0.32))},
	}

	embedder := &fakeEmbedder{vector: func(doc string) []float32 {
		for title, v := range vectors {
			if strings.HasPrefix(doc, "Title: "+title+"\n") {
				return v
			}
		}
		return []float32{1, 0}
	}}

	postings := []*jobs.Posting{
		titledJob("orthogonal"),
		titledJob("partial"),
		titledJob("diagonal"),
		titledJob("good"),
		titledJob("same"),
		titledJob("potential"),
	}

	results, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: "resume"}, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"same", "diagonal", "good", "potential", "partial"}
	if got := ids(results); !reflect.DeepEqual(got, wantIDs) {
		t.Fatalf("unexpected order: %v, want %v", got, wantIDs)
	}

	wantScores := []int{100, 71, 60, 40, 32}
	wantPrefixes := []string{"Excellent", "Excellent", "Good", "Potential", "Partial"}
	for i, r := range results {
		if r.Score != wantScores[i] {
			t.Fatalf("result %d: score %d, want %d", i, r.Score, wantScores[i])
		}
		if !strings.HasPrefix(r.Reason, wantPrefixes[i]) {
			t.Fatalf("result %d: reason %q, want prefix %q", i, r.Reason, wantPrefixes[i])
		}
	}
}

func TestSemanticScorerBatchesInOrder(t *testing.T) {
	t.Parallel()

	postings := make([]*jobs.Posting, 0, 250)
	for i := 0; i < 250; i++ {
		postings = append(postings, titledJob(fmt.Sprintf("job-%03d", i)))
	}

	embedder := &fakeEmbedder{vector: constantVector}
	results, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: "resume"}, postings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(embedder.calls) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(embedder.calls))
	}
	sizes := []int{len(embedder.calls[0]), len(embedder.calls[1]), len(embedder.calls[2])}
	if !reflect.DeepEqual(sizes, []int{100, 100, 51}) {
		t.Fatalf("unexpected batch sizes: %v", sizes)
	}
	if embedder.calls[0][0] != "resume" {
		t.Fatalf("expected resume document first, got %q", embedder.calls[0][0])
	}
	if !strings.HasPrefix(embedder.calls[1][0], "Title: job-099\n") {
		t.Fatalf("unexpected first document of second batch: %q", embedder.calls[1][0])
	}

	if len(results) != len(postings) {
		t.Fatalf("expected %d results, got %d", len(postings), len(results))
	}
	for i, r := range results {
		if r.Job != postings[i] {
			t.Fatalf("tie order not preserved at %d", i)
		}
	}
}

func TestSemanticScorerCountMismatch(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vector: constantVector, short: true}
	_, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: "resume"}, []*jobs.Posting{titledJob("a")})
	if !errors.Is(err, ai.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestSemanticScorerPropagatesProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	embedder := &fakeEmbedder{vector: constantVector, err: boom}
	_, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: "resume"}, []*jobs.Posting{titledJob("a")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSemanticScorerTruncatesResume(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vector: constantVector}
	resume := strings.Repeat("é", maxResumeRunes+500)
	if _, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: resume}, []*jobs.Posting{titledJob("a")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := utf8.RuneCountInString(embedder.calls[0][0]); got != maxResumeRunes {
		t.Fatalf("expected %d runes, got %d", maxResumeRunes, got)
	}
}

func TestSemanticScorerNoPostings(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vector: constantVector}
	results, err := NewSemanticScorer(embedder, 0, nil).Score(context.Background(), Resume{Text: "resume"}, nil)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty result, got %v, %v", results, err)
	}
	if len(embedder.calls) != 0 {
		t.Fatalf("expected no embedding calls, got %d", len(embedder.calls))
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{3, 4}, b: []float32{3, 4}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "dimension mismatch", a: []float32{1, 0, 0}, b: []float32{1, 0}, want: 0},
	}

	for _, tt := range tests {
		if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%s: CosineSimilarity() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestJobDocument(t *testing.T) {
	t.Parallel()

	doc := JobDocument(&jobs.Posting{
		Title:       "Backend Engineer",
		Department:  "Engineering",
		Level:       jobs.LevelSenior,
		Location:    "Remote",
		Skills:      []string{"Go", " ", "SQL"},
		Description: "Build APIs.",
	})

	want := "Title: Backend Engineer\nDepartment: Engineering\nLevel: Senior\nLocation: Remote\nSkills: Go, SQL\nDescription: Build APIs."
	if doc != want {
		t.Fatalf("unexpected document:\n%s", doc)
	}
}
