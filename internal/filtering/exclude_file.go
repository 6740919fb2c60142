package filtering

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

type excludeFileFilter struct {
	path    string
	enabled bool
	reason  string
}

// NewExcludeFile creates a filter that removes postings listed in the exclude file.
func NewExcludeFile(path string) Filter {
	path = strings.TrimSpace(path)
	f := &excludeFileFilter{path: path, enabled: path != ""}
	if !f.enabled {
		f.reason = "exclude file not configured"
	}
	return f
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return f.enabled }

func (f *excludeFileFilter) Validate(*Criteria) error { return nil }

// Apply treats a missing file as an empty list so the first run works before anything was excluded.
func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	excludedFromFile, err := jobs.LoadExcludedFromFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, Step{Initial: initial, Left: initial}, nil
	}
	if err != nil {
		return p, Step{}, fmt.Errorf("load exclude file %s: %w", f.path, err)
	}

	excluded := p.Exclude(jobs.PostingIDField, excludedFromFile.IDs())
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("file", f.path),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"file": f.path},
	}
}
