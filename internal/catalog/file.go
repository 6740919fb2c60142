package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

const fileJobsKey = "jobs"

// FileSource is a read-only catalog loaded once from a JSON, YAML or TOML file
// holding a top-level "jobs" list. Keys are snake_case.
type FileSource struct {
	path     string
	postings *jobs.Postings
}

var _ Source = (*FileSource)(nil)

func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	postings, err := LoadFile(path, time.Now())
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("catalog file loaded", zap.String("path", path), zap.Int("postings", postings.Len()))
	}

	return &FileSource{path: path, postings: postings}, nil
}

// LoadFile reads and validates every posting in the file. Postings without an
// ID get one derived from the file path and their position, so IDs are stable
// between runs.
func LoadFile(path string, now time.Time) (*jobs.Postings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog file %q: %w", path, err)
	}

	raw, ok := v.Get(fileJobsKey).([]any)
	if !ok {
		return nil, fmt.Errorf("catalog file %q has no %q list", path, fileJobsKey)
	}

	items, err := decodePostings(raw, "mapstructure", now)
	if err != nil {
		return nil, fmt.Errorf("catalog file %q: %w", path, err)
	}

	namespace := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(path)))
	for i, p := range items {
		if p.ID == "" {
			p.ID = uuid.NewSHA1(namespace, []byte(strconv.Itoa(i))).String()
		}
	}

	return jobs.NewPostings(items...), nil
}

func (f *FileSource) All(ctx context.Context) (*jobs.Postings, error) {
	return f.postings.Clone(), nil
}

func (f *FileSource) Get(ctx context.Context, id string) (*jobs.Posting, error) {
	return getFromAll(ctx, f, id)
}
