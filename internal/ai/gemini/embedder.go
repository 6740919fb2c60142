package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	providerName        = "gemini"
	defaultModel        = "text-embedding-004"
	defaultMaxLogLength = 200
	taskType            = "SEMANTIC_SIMILARITY"

	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 10 * time.Second
)

var (
	wait = utils.WaitFor

	retryHintRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)
)

type embedService interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Options configure the Gemini embedder.
type Options struct {
	APIKey string
	Model  string
	// MaxRetries is the total number of attempts per request. Values below 1 mean a single attempt.
	MaxRetries   int
	MaxLogLength int
	Timeout      time.Duration
}

// Embedder implements ai.Embedder on top of the Google GenAI client.
type Embedder struct {
	models     embedService
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an Embedder configured for the Gemini API backend.
func NewEmbedder(ctx context.Context, opts Options, logger *zap.Logger) (*Embedder, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, opts, logger), nil
}

func newEmbedder(models embedService, opts Options, logger *zap.Logger) *Embedder {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger,
	}
}

// Embed requests one embedding per document in a single call.
func (e *Embedder) Embed(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}
	if len(docs) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: doc}},
		})
	}

	e.logger.Debug("gemini embed content request",
		zap.Int("documents", len(docs)),
		zap.Int("first_document_length", utf8.RuneCountInString(docs[0])),
		zap.String("first_document_preview", utils.TruncateForLog(docs[0], e.maxLogLen)),
	)

	resp, err := e.embedWithRetry(ctx, contents)
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Embeddings) != len(docs) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", ai.ErrMalformedResponse, len(docs), got)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: embedding %d is empty", ai.ErrMalformedResponse, i)
		}
		vectors[i] = emb.Values
	}

	e.logger.Debug("gemini embed content response",
		zap.Int("embeddings", len(vectors)),
		zap.Int("dimensions", len(vectors[0])),
	)

	return vectors, nil
}

func (e *Embedder) embedWithRetry(ctx context.Context, contents []*genai.Content) (*genai.EmbedContentResponse, error) {
	config := &genai.EmbedContentConfig{TaskType: taskType}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		resp, err := e.models.EmbedContent(ctx, e.model, contents, config)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == e.maxRetries-1 || !isRetryable(err) {
			break
		}

		delay := utils.Backoff(attempt, baseRetryDelay, maxRetryDelay)
		if hint, ok := retryHint(err); ok {
			if hint > maxRetryDelay {
				e.logger.Warn("gemini asked to back off longer than allowed, giving up",
					zap.Duration("retry_after", hint),
					zap.Error(err),
				)
				break
			}
			delay = hint
		}

		e.logger.Warn("gemini embed content failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func (e *Embedder) Provider() string {
	return providerName
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

func isRetryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

// retryHint extracts the delay the API asked for, either from a RetryInfo
// detail or from the message text.
func retryHint(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d, true
		}
	}

	if m := retryHintRe.FindStringSubmatch(apiErr.Message); m != nil {
		seconds, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return time.Duration(seconds * float64(time.Second)), true
		}
	}

	return 0, false
}
