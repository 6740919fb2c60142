package matching

import "github.com/spigell/job-matcher/internal/jobs"

// Resume is the extracted text of one uploaded resume.
type Resume struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// Result pairs a posting with its score in [0,100] and a non-empty reason.
type Result struct {
	Job    *jobs.Posting `json:"job"`
	Score  int           `json:"score"`
	Reason string        `json:"reason"`
}

// Mode names the scorer that produced an Outcome.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
)

// Outcome is the ranked output of a single Match call.
type Outcome struct {
	Mode    Mode     `json:"mode"`
	Matches []Result `json:"matches"`
}

func (o *Outcome) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Matches)
}

func compact(postings []*jobs.Posting) []*jobs.Posting {
	out := make([]*jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
