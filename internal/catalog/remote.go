package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	userAgent       = "spigell/job-matcher"
	acceptEncoding  = "gzip"
	remotePageSize  = 100
	defaultTimeout  = 10 * time.Second
	maxRemotePages  = 1000
	contentTypeJSON = "application/json"
)

// pageResponse is one page of a paginated job listing.
type pageResponse struct {
	Jobs       []any `json:"jobs"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

// RemoteSource reads postings from another service exposing the paginated
// GET /api/jobs listing. Pages are 1-based.
type RemoteSource struct {
	URL        string
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

var _ Source = (*RemoteSource)(nil)

func NewRemoteSource(rawURL string, timeout time.Duration, logger *zap.Logger) *RemoteSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{
		URL:        rawURL,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		logger:     logger,
	}
}

// All fetches every page in order.
func (r *RemoteSource) All(ctx context.Context) (*jobs.Postings, error) {
	var items []any

	response, err := r.fetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("got catalog response", zap.Int("pages", response.TotalPages), zap.Int("total", response.Total))
	items = append(items, response.Jobs...)

	for page := 2; page <= response.TotalPages; page++ {
		if page > maxRemotePages {
			return nil, fmt.Errorf("remote catalog has more than %d pages", maxRemotePages)
		}

		r.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", page-1, response.TotalPages),
		))

		next, err := r.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		items = append(items, next.Jobs...)
	}

	postings, err := decodePostings(items, "json", time.Now())
	if err != nil {
		return nil, fmt.Errorf("remote catalog: %w", err)
	}

	return jobs.NewPostings(postings...), nil
}

func (r *RemoteSource) Get(ctx context.Context, id string) (*jobs.Posting, error) {
	return getFromAll(ctx, r, id)
}

func (r *RemoteSource) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(remotePageSize))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("User-Agent", r.UserAgent)

	r.logger.Debug("make request", zap.String("url", redact(req.URL)))
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog page %d: bad status: %s", page, resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response pageResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode catalog page %d: %w", page, err)
	}

	return &response, nil
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}
