package filtering

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

const noCriterionMsg = "no criterion set"

// predicateFilter keeps postings accepted by keep.
type predicateFilter struct {
	name    string
	enabled bool
	reason  string
	details map[string]string
	keep    func(deps Deps, p *jobs.Posting) bool
}

func newPredicate(name string, enabled bool, details map[string]string, keep func(Deps, *jobs.Posting) bool) *predicateFilter {
	f := &predicateFilter{name: name, enabled: enabled, details: details, keep: keep}
	if !enabled {
		f.reason = noCriterionMsg
	}
	return f
}

func (f *predicateFilter) Name() string { return f.name }

func (f *predicateFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *predicateFilter) IsEnabled() bool { return f.enabled }

func (f *predicateFilter) Validate(*Criteria) error { return nil }

func (f *predicateFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	dropped := p.Keep(func(posting *jobs.Posting) bool {
		return f.keep(deps, posting)
	})
	return p, Step{Initial: initial, Dropped: len(dropped), Left: p.Len()}, nil
}

func (f *predicateFilter) Status() Status {
	return Status{Name: f.name, Enabled: f.enabled, Reason: f.reason, Details: f.details}
}

// Every whitespace separated word must occur in one of the searchable fields.
func newQueryFilter(query string) Filter {
	words := strings.Fields(strings.ToLower(query))
	return newPredicate("query", len(words) > 0, map[string]string{"query": query}, func(_ Deps, p *jobs.Posting) bool {
		haystack := strings.ToLower(strings.Join([]string{
			p.Title, p.Description, strings.Join(p.Skills, " "), p.Company, p.Location, p.Department,
		}, "\n"))
		for _, word := range words {
			if !strings.Contains(haystack, word) {
				return false
			}
		}
		return true
	})
}

func newDepartmentFilter(department string) Filter {
	return newPredicate("department", department != "", map[string]string{"department": department}, func(_ Deps, p *jobs.Posting) bool {
		return strings.EqualFold(strings.TrimSpace(p.Department), department)
	})
}

func newLevelFilter(level string) Filter {
	want, _ := jobs.ParseLevel(level)
	return newPredicate("level", level != "", map[string]string{"level": level}, func(_ Deps, p *jobs.Posting) bool {
		got, ok := jobs.ParseLevel(string(p.Level))
		return ok && got == want
	})
}

func newTypeFilter(kind string) Filter {
	return newPredicate("type", kind != "", map[string]string{"type": kind}, func(_ Deps, p *jobs.Posting) bool {
		return strings.EqualFold(strings.TrimSpace(p.Type), kind)
	})
}

func newRemoteFilter(remote *bool) Filter {
	return newPredicate("remote", remote != nil, boolDetails("remote", remote), func(_ Deps, p *jobs.Posting) bool {
		return p.Remote == *remote
	})
}

func newVisaFilter(visa *bool) Filter {
	return newPredicate("visa_sponsorship", visa != nil, boolDetails("visa_sponsorship", visa), func(_ Deps, p *jobs.Posting) bool {
		return p.VisaSponsorship == *visa
	})
}

func newLocationFilter(location string) Filter {
	needle := strings.ToLower(location)
	return newPredicate("location", location != "", map[string]string{"location": location}, func(_ Deps, p *jobs.Posting) bool {
		return strings.Contains(strings.ToLower(p.Location), needle)
	})
}

// A posting passes when its salary range overlaps the requested one.
func newSalaryFilter(lo, hi *int) Filter {
	details := map[string]string{}
	if lo != nil {
		details["salary_min"] = strconv.Itoa(*lo)
	}
	if hi != nil {
		details["salary_max"] = strconv.Itoa(*hi)
	}
	return newPredicate("salary", lo != nil || hi != nil, details, func(_ Deps, p *jobs.Posting) bool {
		if lo != nil && p.Salary.Max < *lo {
			return false
		}
		if hi != nil && p.Salary.Min > *hi {
			return false
		}
		return true
	})
}

// Dates are compared at day granularity against Deps.Now.
func newPostedWithinFilter(window string) Filter {
	return newPredicate("posted_within", window != "", map[string]string{"posted_within": window}, func(deps Deps, p *jobs.Posting) bool {
		cutoff := deps.Now.Add(-postedWithin[window]).Format(jobs.DateLayout)
		return strings.TrimSpace(p.PostedDate) >= cutoff
	})
}

func boolDetails(key string, v *bool) map[string]string {
	if v == nil {
		return nil
	}
	return map[string]string{key: strconv.FormatBool(*v)}
}

type excludedCompaniesFilter struct {
	companies []string
	enabled   bool
	reason    string
}

// NewExcludedCompanies creates a filter that removes postings from the listed companies.
func NewExcludedCompanies(companies []string) Filter {
	f := &excludedCompaniesFilter{companies: companies, enabled: len(companies) > 0}
	if !f.enabled {
		f.reason = noCriterionMsg
	}
	return f
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *excludedCompaniesFilter) IsEnabled() bool { return f.enabled }

func (f *excludedCompaniesFilter) Validate(*Criteria) error { return nil }

func (f *excludedCompaniesFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	excluded := p.Exclude(jobs.PostingCompanyField, f.companies)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding postings based on company list",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *excludedCompaniesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"companies": strings.Join(f.companies, ", ")},
	}
}
