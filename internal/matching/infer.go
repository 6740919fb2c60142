package matching

import (
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

// Domain is a coarse subject-matter category inferred from resume text.
type Domain string

const (
	DomainEngineering     Domain = "engineering"
	DomainDataScience     Domain = "data science"
	DomainDesign          Domain = "design"
	DomainMarketing       Domain = "marketing"
	DomainSales           Domain = "sales"
	DomainFinance         Domain = "finance"
	DomainHealthcare      Domain = "healthcare"
	DomainHumanResources  Domain = "human resources"
	DomainLegal           Domain = "legal"
	DomainEducation       Domain = "education"
	DomainOperations      Domain = "operations"
	DomainProduct         Domain = "product"
	DomainCustomerSuccess Domain = "customer success"
	DomainHospitality     Domain = "hospitality"
)

// Profile holds the attributes inferred from one resume.
type Profile struct {
	Level   jobs.Level
	Domains []Domain
}

// HasDomain reports whether d was inferred.
func (p Profile) HasDomain(d Domain) bool {
	for _, domain := range p.Domains {
		if domain == d {
			return true
		}
	}
	return false
}

type levelIndicators struct {
	level      jobs.Level
	indicators []string
	// words only match whole words so "coo" does not fire on "coordinator".
	words []string
}

// levelTable is evaluated top to bottom; the most senior match wins.
var levelTable = []levelIndicators{
	{jobs.LevelCSuite, []string{"chief", "c-level", "executive"}, []string{"cto", "ceo", "cfo", "coo", "cpo"}},
	{jobs.LevelVP, []string{"vice president"}, []string{"vp", "svp", "evp"}},
	{jobs.LevelDirector, []string{"director", "head of"}, nil},
	{jobs.LevelManager, []string{"manager", "management", "managing"}, nil},
	{jobs.LevelLead, []string{"lead", "principal", "tech lead", "team lead"}, []string{"staff"}},
	{jobs.LevelSenior, []string{"senior", "sr.", "5+ years", "5-7 years", "6+ years", "7+ years", "8+ years", "10+ years", "experienced"}, nil},
	{jobs.LevelMid, []string{"mid level", "mid-level", "2-4 years", "3-5 years", "intermediate"}, nil},
	{jobs.LevelEntry, []string{"entry level", "entry-level", "junior", "associate", "new grad", "recent graduate", "0-2 years"}, nil},
	{jobs.LevelIntern, []string{"intern", "internship", "co-op"}, []string{"coop"}},
}

type domainKeywords struct {
	domain   Domain
	keywords []string
}

// domainTable order is the order domains are reported in.
var domainTable = []domainKeywords{
	{DomainEngineering, []string{
		"software", "engineer", "developer", "programming", "code",
		"coding", "technical", "backend", "frontend", "fullstack",
		"devops", "infrastructure", "platform", "systems",
	}},
	{DomainDataScience, []string{
		"data science", "machine learning", "deep learning",
		"artificial intelligence", "nlp", "computer vision",
		"statistics", "analytics", "data analysis", "neural",
	}},
	{DomainDesign, []string{
		"ui design", "ux design", "user experience", "user interface",
		"figma", "sketch", "prototyping", "wireframe", "visual design",
		"graphic design", "creative director", "branding",
		"interaction design", "design systems",
	}},
	{DomainMarketing, []string{
		"marketing", "seo", "social media", "content",
		"campaign", "brand", "advertising", "digital marketing",
		"growth", "acquisition",
	}},
	{DomainSales, []string{
		"sales", "revenue", "quota", "pipeline", "prospecting",
		"account", "b2b", "b2c", "crm", "salesforce",
		"business development",
	}},
	{DomainFinance, []string{
		"finance", "accounting", "financial", "budget", "audit",
		"revenue", "bookkeeping", "quickbooks", "gaap", "forecasting",
	}},
	{DomainHealthcare, []string{
		"healthcare", "medical", "clinical", "patient", "nursing",
		"nurse", "pharmacy", "dental", "hipaa", "ehr", "diagnosis",
		"treatment", "hospital",
	}},
	{DomainHumanResources, []string{
		"human resources", "recruiting", "talent", "hiring",
		"onboarding", "payroll", "benefits", "compensation",
		"employee relations",
	}},
	{DomainLegal, []string{
		"legal", "law", "attorney", "lawyer", "contract",
		"compliance", "litigation", "regulatory",
		"intellectual property", "patent",
	}},
	{DomainEducation, []string{
		"education", "teaching", "teacher", "curriculum",
		"classroom", "student", "academic", "instruction",
		"learning", "pedagogy",
	}},
	{DomainOperations, []string{
		"operations", "supply chain", "logistics", "procurement",
		"inventory", "warehouse", "manufacturing",
		"process improvement", "lean", "six sigma",
	}},
	{DomainProduct, []string{
		"product management", "product manager", "roadmap",
		"backlog", "stakeholder", "product strategy",
		"user stories", "sprint planning",
	}},
	{DomainCustomerSuccess, []string{
		"customer success", "customer support", "customer service",
		"client relations", "retention", "churn", "nps",
	}},
	{DomainHospitality, []string{
		"hospitality", "hotel", "restaurant", "guest", "tourism",
		"catering", "front desk", "concierge", "chef", "food service",
		"event planning", "banquet", "resort", "lodging",
	}},
}

// healthcareDepartments mark a posting as healthcare when found in its department.
var healthcareDepartments = []string{"healthcare", "medical", "nursing", "clinical"}

func lowerText(text string) string {
	return foldAccents(strings.ToLower(text))
}

// InferLevel returns the most senior level with an indicator present in
// text, or Mid when nothing matches.
func InferLevel(text string) jobs.Level {
	return inferLevel(lowerText(text))
}

func inferLevel(lower string) jobs.Level {
	words := wordSet(lower)
	for _, row := range levelTable {
		if containsAny(lower, row.indicators) {
			return row.level
		}
		for _, word := range row.words {
			if words.Has(word) {
				return row.level
			}
		}
	}
	return jobs.LevelMid
}

// InferDomains returns every domain with at least two keyword hits, in table
// order. When none reaches two hits, only the first domain with a single hit
// is returned.
func InferDomains(text string) []Domain {
	return inferDomains(lowerText(text))
}

func inferDomains(lower string) []Domain {
	var (
		domains  []Domain
		fallback Domain
	)

	for _, row := range domainTable {
		hits := countHits(lower, row.keywords)
		if hits >= 2 {
			domains = append(domains, row.domain)
		}
		if hits >= 1 && fallback == "" {
			fallback = row.domain
		}
	}

	if len(domains) == 0 && fallback != "" {
		return []Domain{fallback}
	}
	return domains
}

// InferProfile derives level and domains from resume text.
func InferProfile(text string) Profile {
	return inferProfile(lowerText(text))
}

func inferProfile(lower string) Profile {
	return Profile{
		Level:   inferLevel(lower),
		Domains: inferDomains(lower),
	}
}

// IsHealthcare reports whether the posting belongs to a healthcare department.
func IsHealthcare(job *jobs.Posting) bool {
	if job == nil {
		return false
	}
	return containsAny(strings.ToLower(job.Department), healthcareDepartments)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func countHits(text string, needles []string) int {
	hits := 0
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			hits++
		}
	}
	return hits
}
