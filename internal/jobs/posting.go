package jobs

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PostingIDField         = "ID"
	PostingCompanyField    = "Company"
	PostingDepartmentField = "Department"

	// DateLayout is the layout of Posting.PostedDate.
	DateLayout = "2006-01-02"

	defaultCurrency = "USD"
)

// Posting is a single job posting supplied by the catalog. The matching engine
// reads postings but never mutates them.
type Posting struct {
	ID               string   `json:"id" mapstructure:"id"`
	Title            string   `json:"title" mapstructure:"title" validate:"required"`
	Company          string   `json:"company" mapstructure:"company" validate:"required"`
	Department       string   `json:"department" mapstructure:"department" validate:"required"`
	Industry         string   `json:"industry,omitempty" mapstructure:"industry"`
	Location         string   `json:"location" mapstructure:"location" validate:"required"`
	Type             string   `json:"type" mapstructure:"type" validate:"required"`
	Level            Level    `json:"level" mapstructure:"level" validate:"required,level"`
	Salary           Salary   `json:"salary" mapstructure:"salary"`
	Description      string   `json:"description" mapstructure:"description" validate:"required"`
	Requirements     []string `json:"requirements" mapstructure:"requirements"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
	Skills           []string `json:"skills" mapstructure:"skills"`
	PostedDate       string   `json:"postedDate" mapstructure:"posted_date" validate:"omitempty,datetime=2006-01-02"`
	Remote           bool     `json:"remote" mapstructure:"remote"`
	VisaSponsorship  bool     `json:"visaSponsorship,omitempty" mapstructure:"visa_sponsorship"`
}

// Salary is a compensation range. Min must not exceed Max.
type Salary struct {
	Min      int    `json:"min" mapstructure:"min" validate:"gte=0"`
	Max      int    `json:"max" mapstructure:"max" validate:"gtefield=Min"`
	Currency string `json:"currency" mapstructure:"currency"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func postingValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("level", func(fl validator.FieldLevel) bool {
			_, ok := ParseLevel(fl.Field().String())
			return ok
		})
	})
	return validate
}

// Validate checks required fields, the level taxonomy and the salary range.
func (p *Posting) Validate() error {
	if p == nil {
		return errors.New("posting is nil")
	}

	if err := postingValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid posting: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid posting: %w", err)
	}

	return nil
}

// Normalize fills defaults and canonicalises the level name.
func (p *Posting) Normalize(now time.Time) {
	if lvl, ok := ParseLevel(string(p.Level)); ok {
		p.Level = lvl
	}
	if strings.TrimSpace(p.Salary.Currency) == "" {
		p.Salary.Currency = defaultCurrency
	}
	if strings.TrimSpace(p.PostedDate) == "" {
		p.PostedDate = now.Format(DateLayout)
	}
	if p.Requirements == nil {
		p.Requirements = []string{}
	}
	if p.Responsibilities == nil {
		p.Responsibilities = []string{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
}

// Posted parses PostedDate. The zero time is returned for empty or malformed dates.
func (p *Posting) Posted() time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(p.PostedDate))
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetStringField returns the value of a named string field used by exclusions.
func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company
	case PostingDepartmentField:
		return p.Department
	default:
		return ""
	}
}
