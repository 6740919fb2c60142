package matching

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	skillPoints       = 40.0
	titlePoints       = 20.0
	domainPoints      = 15.0
	levelPoints       = 15.0
	descriptionPoints = 10.0

	maxScore = 100.0
	// MinKeywordScore is the floor a keyword result must exceed to be emitted.
	MinKeywordScore = 5

	healthcareJobPenalty    = 0.3
	healthcareResumePenalty = 0.5

	alignedLevelProximity = 0.7
	maxReasonNotes        = 2

	fallbackReason = "Partial match based on your profile."
)

// evidence is everything derived from the resume once per call.
type evidence struct {
	lower   string
	tokens  TokenSet
	profile Profile
}

func newEvidence(text string) *evidence {
	tokens := Tokenize(text)
	lower := lowerText(text)
	return &evidence{
		lower:   lower,
		tokens:  tokens,
		profile: inferProfile(lower),
	}
}

// Breakdown is the per-signal contribution for one posting.
type Breakdown struct {
	Skills        float64
	Title         float64
	Domain        float64
	Level         float64
	Description   float64
	Penalty       float64
	MatchedSkills []string
	DomainAligned bool
	Proximity     float64
}

// Sum is the unpenalized total of all signals.
func (b Breakdown) Sum() float64 {
	return b.Skills + b.Title + b.Domain + b.Level + b.Description
}

// Total applies the penalty multiplier.
func (b Breakdown) Total() float64 {
	return b.Sum() * b.Penalty
}

// Score clamps and rounds the total into [0,100].
func (b Breakdown) Score() int {
	return roundScore(math.Min(b.Total(), maxScore))
}

// KeywordScorer ranks postings with local keyword signals only.
type KeywordScorer struct {
	logger *zap.Logger
}

func NewKeywordScorer(logger *zap.Logger) *KeywordScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordScorer{logger: logger}
}

// Score returns the postings scoring above MinKeywordScore, best first.
// Ties keep input order.
func (s *KeywordScorer) Score(resume Resume, postings []*jobs.Posting) []Result {
	ev := newEvidence(resume.Text)

	s.logger.Debug("keyword profile inferred",
		zap.String("level", ev.profile.Level.String()),
		zap.Any("domains", ev.profile.Domains),
		zap.Int("tokens", ev.tokens.Len()),
	)

	results := make([]Result, 0)
	for _, job := range compact(postings) {
		b := breakdown(ev, job)
		score := b.Score()
		if score <= MinKeywordScore {
			continue
		}
		results = append(results, Result{
			Job:    job,
			Score:  score,
			Reason: keywordReason(b, job),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Explain returns the signal breakdown of one posting against a resume.
func (s *KeywordScorer) Explain(resume Resume, job *jobs.Posting) Breakdown {
	return breakdown(newEvidence(resume.Text), job)
}

func breakdown(ev *evidence, job *jobs.Posting) Breakdown {
	matched := matchedSkills(ev, job)
	aligned := domainAligned(ev, job)

	b := Breakdown{
		Skills:        skillSignal(len(matched), job),
		Title:         titleSignal(ev, job),
		Description:   descriptionSignal(ev, job),
		MatchedSkills: matched,
		DomainAligned: aligned,
	}
	if aligned {
		b.Domain = domainPoints
	}
	if strings.TrimSpace(ev.lower) != "" {
		b.Proximity = LevelProximity(ev.profile.Level, job.Level)
		b.Level = b.Proximity * levelPoints
	}
	b.Penalty = penalty(ev.profile, job, aligned)

	return b
}

func skillSignal(matched int, job *jobs.Posting) float64 {
	total := len(nonBlank(job.Skills))
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total) * skillPoints
}

func titleSignal(ev *evidence, job *jobs.Posting) float64 {
	return Tokenize(job.Title).Overlap(ev.tokens) * titlePoints
}

func descriptionSignal(ev *evidence, job *jobs.Posting) float64 {
	return math.Min(Tokenize(job.Description).Overlap(ev.tokens)*descriptionPoints, descriptionPoints)
}

// matchedSkills lists the posting skills found in the resume text, in the
// posting's order and spelling.
func matchedSkills(ev *evidence, job *jobs.Posting) []string {
	var matched []string
	if ev.lower == "" {
		return matched
	}
	for _, skill := range nonBlank(job.Skills) {
		if strings.Contains(ev.lower, lowerText(skill)) {
			matched = append(matched, skill)
		}
	}
	return matched
}

func domainAligned(ev *evidence, job *jobs.Posting) bool {
	if len(ev.profile.Domains) == 0 {
		return false
	}
	fields := []string{
		strings.ToLower(job.Department),
		strings.ToLower(job.Title),
		strings.ToLower(job.Description),
	}
	for _, domain := range ev.profile.Domains {
		for _, field := range fields {
			if strings.Contains(field, string(domain)) {
				return true
			}
		}
	}
	return false
}

func penalty(profile Profile, job *jobs.Posting, aligned bool) float64 {
	healthcareJob := IsHealthcare(job)
	healthcareResume := profile.HasDomain(DomainHealthcare)

	switch {
	case healthcareJob && !healthcareResume:
		return healthcareJobPenalty
	case healthcareResume && !healthcareJob && !aligned:
		return healthcareResumePenalty
	default:
		return 1
	}
}

func keywordReason(b Breakdown, job *jobs.Posting) string {
	notes := make([]string, 0, 3)
	if len(b.MatchedSkills) > 0 {
		notes = append(notes, "Skills match: "+strings.Join(b.MatchedSkills, ", "))
	}
	if b.DomainAligned {
		notes = append(notes, "Domain alignment with "+job.Department)
	}
	if b.Proximity > alignedLevelProximity {
		notes = append(notes, "Experience level aligned with "+job.Level.String()+" role")
	}

	if len(notes) == 0 {
		return fallbackReason
	}
	if len(notes) > maxReasonNotes {
		notes = notes[:maxReasonNotes]
	}
	return strings.Join(notes, ". ") + "."
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// roundScore rounds half to even and clamps into [0,100].
func roundScore(v float64) int {
	r := int(math.RoundToEven(v))
	switch {
	case r < 0:
		return 0
	case r > int(maxScore):
		return int(maxScore)
	default:
		return r
	}
}
