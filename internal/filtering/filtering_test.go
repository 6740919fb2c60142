package filtering

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/jobs"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func catalog() *jobs.Postings {
	return jobs.NewPostings(
		&jobs.Posting{
			ID: "eng-1", Title: "Senior Backend Engineer", Company: "Acme", Department: "Engineering",
			Location: "Berlin, Germany", Type: "Full-time", Level: jobs.Level("Senior"),
			Salary: jobs.Salary{Min: 90000, Max: 120000}, Description: "Build Go services",
			Skills: []string{"Go", "PostgreSQL"}, PostedDate: "2025-03-14", Remote: true,
		},
		&jobs.Posting{
			ID: "mkt-1", Title: "Marketing Manager", Company: "Globex", Department: "Marketing",
			Location: "New York, USA", Type: "Full-time", Level: jobs.Level("Manager"),
			Salary: jobs.Salary{Min: 70000, Max: 85000}, Description: "Own brand campaigns",
			Skills: []string{"SEO"}, PostedDate: "2025-03-01", VisaSponsorship: true,
		},
		&jobs.Posting{
			ID: "eng-2", Title: "Junior Frontend Developer", Company: "Initech", Department: "Engineering",
			Location: "Remote", Type: "Contract", Level: jobs.Level("Entry"),
			Salary: jobs.Salary{Min: 40000, Max: 55000}, Description: "React components",
			Skills: []string{"React", "TypeScript"}, PostedDate: "2025-01-20", Remote: true,
		},
	)
}

func ids(p *jobs.Postings) []string {
	out := make([]string, 0, p.Len())
	for _, posting := range p.Items {
		out = append(out, posting.ID)
	}
	return out
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestRunAppliesCriteria(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "no criteria", criteria: Criteria{}, want: []string{"eng-1", "mkt-1", "eng-2"}},
		{name: "query words all required", criteria: Criteria{Query: "go berlin"}, want: []string{"eng-1"}},
		{name: "query matches skills", criteria: Criteria{Query: "typescript"}, want: []string{"eng-2"}},
		{name: "department case insensitive", criteria: Criteria{Department: "engineering"}, want: []string{"eng-1", "eng-2"}},
		{name: "level", criteria: Criteria{Level: "manager"}, want: []string{"mkt-1"}},
		{name: "type", criteria: Criteria{Type: "Contract"}, want: []string{"eng-2"}},
		{name: "remote", criteria: Criteria{Remote: boolPtr(true)}, want: []string{"eng-1", "eng-2"}},
		{name: "visa", criteria: Criteria{VisaSponsorship: boolPtr(true)}, want: []string{"mkt-1"}},
		{name: "location substring", criteria: Criteria{Location: "usa"}, want: []string{"mkt-1"}},
		{name: "salary min keeps overlapping max", criteria: Criteria{SalaryMin: intPtr(85000)}, want: []string{"eng-1", "mkt-1"}},
		{name: "salary max keeps overlapping min", criteria: Criteria{SalaryMax: intPtr(70000)}, want: []string{"mkt-1", "eng-2"}},
		{name: "posted within a week", criteria: Criteria{PostedWithin: "7d"}, want: []string{"eng-1"}},
		{name: "posted within a month", criteria: Criteria{PostedWithin: "30d"}, want: []string{"eng-1", "mkt-1"}},
		{name: "excluded companies", criteria: Criteria{ExcludedCompanies: []string{"acme", "Initech"}}, want: []string{"mkt-1"}},
		{name: "combined", criteria: Criteria{Department: "Engineering", Remote: boolPtr(true), SalaryMin: intPtr(100000)}, want: []string{"eng-1"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tt.criteria
			got, err := Run(context.Background(), &c, Deps{Now: testNow}, c.Steps(), catalog())
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestRunDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	input := catalog()
	c := &Criteria{Department: "Marketing"}
	if _, err := Run(context.Background(), c, Deps{Now: testNow}, c.Steps(), input); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !reflect.DeepEqual(ids(input), []string{"eng-1", "mkt-1", "eng-2"}) {
		t.Fatalf("input was modified: %v", ids(input))
	}
}

func TestRunLogsSteps(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	c := &Criteria{Department: "Engineering"}

	if _, err := Run(context.Background(), c, Deps{Logger: zap.New(core), Now: testNow}, c.Steps(), catalog()); err != nil {
		t.Fatalf("run: %v", err)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 1 {
		t.Fatalf("expected one applied step, got %d", len(steps))
	}
	fields := steps[0].ContextMap()
	if fields["name"] != "department" || fields["initial"] != int64(3) || fields["dropped"] != int64(1) || fields["left"] != int64(2) {
		t.Fatalf("unexpected step fields: %v", fields)
	}
}

func TestDisableByName(t *testing.T) {
	t.Parallel()

	c := &Criteria{Department: "Marketing", Level: "Entry"}
	steps := c.Steps()
	DisableByName(steps, "level", "operator override")

	got, err := Run(context.Background(), c, Deps{Now: testNow}, steps, catalog())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"mkt-1"}) {
		t.Fatalf("unexpected result: %v", ids(got))
	}

	for _, status := range Describe(steps) {
		if status.Name == "level" {
			if status.Enabled || status.Reason != "operator override" {
				t.Fatalf("unexpected level status: %+v", status)
			}
			return
		}
	}
	t.Fatal("level filter missing from description")
}

func TestExcludeFileFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "excluded.json")
	excluded := jobs.NewPostings(&jobs.Posting{ID: "mkt-1"}).ToExcluded(testNow)
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	c := &Criteria{ExcludeFile: path}
	got, err := Run(context.Background(), c, Deps{Now: testNow}, c.Steps(), catalog())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"eng-1", "eng-2"}) {
		t.Fatalf("unexpected result: %v", ids(got))
	}

	missing := &Criteria{ExcludeFile: filepath.Join(dir, "missing.json")}
	got, err = Run(context.Background(), missing, Deps{Now: testNow}, missing.Steps(), catalog())
	if err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected all postings, got %d", got.Len())
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bad := &Criteria{ExcludeFile: broken}
	if _, err := Run(context.Background(), bad, Deps{Now: testNow}, bad.Steps(), catalog()); err == nil {
		t.Fatal("expected error for malformed exclude file")
	}
}

func TestCriteriaFromQuery(t *testing.T) {
	t.Parallel()

	values := url.Values{
		"search":          {"golang"},
		"department":      {"Engineering"},
		"visaSponsorship": {"true"},
		"salaryMin":       {"50000"},
		"postedWithin":    {"24h"},
		"sort":            {"salary-high"},
		"page":            {"2"},
		"pageSize":        {"5"},
	}

	c, listing, err := CriteriaFromQuery(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Query != "golang" || c.Department != "Engineering" || c.PostedWithin != "24h" {
		t.Fatalf("unexpected criteria: %+v", c)
	}
	if c.VisaSponsorship == nil || !*c.VisaSponsorship || c.SalaryMin == nil || *c.SalaryMin != 50000 || c.SalaryMax != nil {
		t.Fatalf("unexpected optional criteria: %+v", c)
	}
	if listing != (Listing{Sort: SortSalaryHigh, Page: 2, PageSize: 5}) {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	_, listing, err = CriteriaFromQuery(url.Values{})
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if listing.Page != 1 || listing.PageSize != DefaultPageSize {
		t.Fatalf("unexpected defaults: %+v", listing)
	}
}

func TestCriteriaFromQueryRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := map[string]url.Values{
		"bad salary":    {"salaryMin": {"lots"}},
		"bad bool":      {"remote": {"maybe"}},
		"bad window":    {"postedWithin": {"1y"}},
		"bad level":     {"level": {"Wizard"}},
		"page zero":     {"page": {"0"}},
		"page too big":  {"pageSize": {"101"}},
		"page size neg": {"pageSize": {"-1"}},
	}

	for name, values := range tests {
		values := values
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := CriteriaFromQuery(values); !errors.Is(err, ErrInvalidCriteria) {
				t.Fatalf("expected ErrInvalidCriteria, got %v", err)
			}
		})
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want []string
	}{
		{key: SortDate, want: []string{"eng-1", "mkt-1", "eng-2"}},
		{key: "", want: []string{"eng-1", "mkt-1", "eng-2"}},
		{key: SortSalaryHigh, want: []string{"eng-1", "mkt-1", "eng-2"}},
		{key: SortSalaryLow, want: []string{"eng-2", "mkt-1", "eng-1"}},
	}

	for _, tt := range tests {
		p := catalog()
		p.Items[0], p.Items[2] = p.Items[2], p.Items[0]
		Sort(p, tt.key)
		if !reflect.DeepEqual(ids(p), tt.want) {
			t.Fatalf("sort %q: expected %v, got %v", tt.key, tt.want, ids(p))
		}
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      int
		size      int
		wantIDs   []string
		wantPages int
	}{
		{name: "first page", page: 1, size: 2, wantIDs: []string{"eng-1", "mkt-1"}, wantPages: 2},
		{name: "last partial page", page: 2, size: 2, wantIDs: []string{"eng-2"}, wantPages: 2},
		{name: "past the end", page: 5, size: 2, wantIDs: []string{}, wantPages: 2},
		{name: "single page", page: 1, size: 12, wantIDs: []string{"eng-1", "mkt-1", "eng-2"}, wantPages: 1},
	}

	for _, tt := range tests {
		got, pages := Paginate(catalog(), tt.page, tt.size)
		if pages != tt.wantPages {
			t.Fatalf("%s: expected %d pages, got %d", tt.name, tt.wantPages, pages)
		}
		if !reflect.DeepEqual(ids(got), tt.wantIDs) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantIDs, ids(got))
		}
	}

	empty, pages := Paginate(jobs.NewPostings(), 1, 12)
	if empty.Len() != 0 || pages != 1 {
		t.Fatalf("empty catalog: got %d items and %d pages", empty.Len(), pages)
	}
}
