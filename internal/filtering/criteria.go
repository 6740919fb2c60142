package filtering

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	SortDate       = "date"
	SortSalaryHigh = "salary-high"
	SortSalaryLow  = "salary-low"

	DefaultPageSize = 12
	MaxPageSize     = 100
)

var ErrInvalidCriteria = errors.New("invalid criteria")

var postedWithin = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// Criteria narrows the catalog. Zero values disable the matching filter.
type Criteria struct {
	Query             string   `mapstructure:"query"`
	Department        string   `mapstructure:"department"`
	Level             string   `mapstructure:"level"`
	Type              string   `mapstructure:"type"`
	Location          string   `mapstructure:"location"`
	Remote            *bool    `mapstructure:"remote"`
	VisaSponsorship   *bool    `mapstructure:"visa-sponsorship"`
	SalaryMin         *int     `mapstructure:"salary-min"`
	SalaryMax         *int     `mapstructure:"salary-max"`
	PostedWithin      string   `mapstructure:"posted-within"`
	ExcludedCompanies []string `mapstructure:"excluded-companies"`
	ExcludeFile       string   `mapstructure:"exclude-file"`
}

// Listing holds the sort and pagination part of a catalog request.
type Listing struct {
	Sort     string
	Page     int
	PageSize int
}

// CriteriaFromQuery reads filter, sort and pagination parameters of the
// catalog listing endpoint.
func CriteriaFromQuery(values url.Values) (*Criteria, Listing, error) {
	c := &Criteria{
		Query:        firstNonEmpty(values.Get("q"), values.Get("search")),
		Department:   strings.TrimSpace(values.Get("department")),
		Level:        strings.TrimSpace(values.Get("level")),
		Type:         strings.TrimSpace(values.Get("type")),
		Location:     strings.TrimSpace(values.Get("location")),
		PostedWithin: strings.TrimSpace(values.Get("postedWithin")),
	}

	var err error
	if c.Remote, err = optionalBool(values, "remote"); err != nil {
		return nil, Listing{}, err
	}
	if c.VisaSponsorship, err = optionalBool(values, "visaSponsorship"); err != nil {
		return nil, Listing{}, err
	}
	if c.SalaryMin, err = optionalInt(values, "salaryMin"); err != nil {
		return nil, Listing{}, err
	}
	if c.SalaryMax, err = optionalInt(values, "salaryMax"); err != nil {
		return nil, Listing{}, err
	}

	listing := Listing{Sort: strings.TrimSpace(values.Get("sort")), Page: 1, PageSize: DefaultPageSize}
	if page, err := optionalInt(values, "page"); err != nil {
		return nil, Listing{}, err
	} else if page != nil {
		if *page < 1 {
			return nil, Listing{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidCriteria)
		}
		listing.Page = *page
	}
	if size, err := optionalInt(values, "pageSize"); err != nil {
		return nil, Listing{}, err
	} else if size != nil {
		if *size < 1 || *size > MaxPageSize {
			return nil, Listing{}, fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidCriteria, MaxPageSize)
		}
		listing.PageSize = *size
	}

	if err := c.Validate(); err != nil {
		return nil, Listing{}, err
	}

	return c, listing, nil
}

// Validate checks enumerated values.
func (c *Criteria) Validate() error {
	if c == nil {
		return nil
	}
	if c.Level != "" {
		if _, ok := jobs.ParseLevel(c.Level); !ok {
			return fmt.Errorf("%w: unknown level %q", ErrInvalidCriteria, c.Level)
		}
	}
	if c.PostedWithin != "" {
		if _, ok := postedWithin[c.PostedWithin]; !ok {
			return fmt.Errorf("%w: postedWithin must be one of 24h, 7d, 30d", ErrInvalidCriteria)
		}
	}
	return nil
}

// Steps builds the filter pipeline. Filters without a criterion are disabled.
func (c *Criteria) Steps() []Filter {
	if c == nil {
		c = &Criteria{}
	}

	return []Filter{
		NewExcludeFile(c.ExcludeFile),
		NewExcludedCompanies(c.ExcludedCompanies),
		newQueryFilter(c.Query),
		newDepartmentFilter(c.Department),
		newLevelFilter(c.Level),
		newTypeFilter(c.Type),
		newRemoteFilter(c.Remote),
		newVisaFilter(c.VisaSponsorship),
		newLocationFilter(c.Location),
		newSalaryFilter(c.SalaryMin, c.SalaryMax),
		newPostedWithinFilter(c.PostedWithin),
	}
}

func optionalBool(values url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidCriteria, key)
	}
	return &v, nil
}

func optionalInt(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidCriteria, key)
	}
	return &v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
