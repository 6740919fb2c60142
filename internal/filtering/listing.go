package filtering

import (
	"sort"

	"github.com/spigell/job-matcher/internal/jobs"
)

// Sort orders p in place. Unknown keys fall back to newest first.
func Sort(p *jobs.Postings, key string) {
	var less func(a, b *jobs.Posting) bool
	switch key {
	case SortSalaryHigh:
		less = func(a, b *jobs.Posting) bool { return a.Salary.Max > b.Salary.Max }
	case SortSalaryLow:
		less = func(a, b *jobs.Posting) bool { return a.Salary.Min < b.Salary.Min }
	default:
		less = func(a, b *jobs.Posting) bool { return a.PostedDate > b.PostedDate }
	}

	sort.SliceStable(p.Items, func(i, j int) bool {
		return less(p.Items[i], p.Items[j])
	})
}

// Paginate returns the requested page and the page count, which is at least 1.
// Pages past the end are empty.
func Paginate(p *jobs.Postings, page, pageSize int) (*jobs.Postings, int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := p.Len()
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start >= total {
		return &jobs.Postings{Items: []*jobs.Posting{}}, totalPages
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return jobs.NewPostings(p.Items[start:end]...), totalPages
}
