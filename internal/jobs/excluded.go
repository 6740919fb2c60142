package jobs

import (
	"encoding/json"
	"os"
	"time"
)

// ExcludedPostings is the on-disk list of postings a user never wants to see again.
type ExcludedPostings struct {
	Items []*ExcludedPosting `json:"items"`
}

type ExcludedPosting struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Company    string    `json:"company,omitempty"`
	ExcludedAt time.Time `json:"excludedAt"`
}

func (p *Postings) ToExcluded(now time.Time) *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:         posting.ID,
			Title:      posting.Title,
			Company:    posting.Company,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// LoadExcludedFromFile reads an exclude file. An empty file is an empty list.
func LoadExcludedFromFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose IDs are not present yet.
func (e *ExcludedPostings) Append(other *ExcludedPostings) {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range other.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedPostings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ToFile overwrites path with the list.
func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
