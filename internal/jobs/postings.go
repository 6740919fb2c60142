package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Postings is an ordered collection of postings. Order is the catalog
// iteration order and is preserved by every helper.
type Postings struct {
	Items []*Posting `json:"jobs"`
}

// Facets lists distinct values of the filterable dimensions.
type Facets struct {
	Departments []string `json:"departments"`
	Levels      []string `json:"levels"`
	Locations   []string `json:"locations"`
	Types       []string `json:"types"`
	Industries  []string `json:"industries"`
}

func NewPostings(items ...*Posting) *Postings {
	return &Postings{Items: items}
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	if p == nil {
		return nil
	}
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Clone returns a shallow copy whose Items slice can be filtered independently.
func (p *Postings) Clone() *Postings {
	if p == nil {
		return &Postings{}
	}
	items := make([]*Posting, len(p.Items))
	copy(items, p.Items)
	return &Postings{Items: items}
}

// Keep retains postings accepted by fn and returns the IDs of dropped ones.
func (p *Postings) Keep(fn func(*Posting) bool) []string {
	var dropped []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if fn(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting.ID)
	}
	p.Items = kept
	return dropped
}

// Exclude removes postings whose named field equals one of targets
// (case-insensitive) and returns the removed IDs.
func (p *Postings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return p.Keep(func(posting *Posting) bool {
		_, hit := set[strings.ToLower(posting.GetStringField(name))]
		return !hit
	})
}

// DumpToTmpFile writes the collection as indented JSON into a temp file.
func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByDepartment groups short posting summaries by department.
func (p *Postings) ReportByDepartment() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := posting.Department
		if key == "" {
			key = "Unknown"
		}
		report[key] = append(report[key], map[string]string{
			"id":       posting.ID,
			"title":    posting.Title,
			"company":  posting.Company,
			"level":    posting.Level.String(),
			"location": posting.Location,
			"salary":   fmt.Sprintf("%d-%d %s", posting.Salary.Min, posting.Salary.Max, posting.Salary.Currency),
		})
	}
	return report
}

// Facets collects sorted distinct non-empty values of the filter dimensions.
func (p *Postings) Facets() Facets {
	return Facets{
		Departments: p.distinct(func(j *Posting) string { return j.Department }),
		Levels:      p.distinct(func(j *Posting) string { return j.Level.String() }),
		Locations:   p.distinct(func(j *Posting) string { return j.Location }),
		Types:       p.distinct(func(j *Posting) string { return j.Type }),
		Industries:  p.distinct(func(j *Posting) string { return j.Industry }),
	}
}

func (p *Postings) distinct(field func(*Posting) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, posting := range p.Items {
		v := strings.TrimSpace(field(posting))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
