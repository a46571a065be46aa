package article

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"go-gin-gorm-cms/internal/domain"
)

var (
	positiveInt = validation.Match(regexp.MustCompile(`^[1-9][0-9]{0,8}$`)).Error("must be a positive integer")
	boolFlag    = validation.In("true", "false", "1", "0").Error("must be one of true, false, 1, 0")
	dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}
)

// ListParams is the raw query string of a list request.
type ListParams struct {
	Page        string `form:"page"`
	Limit       string `form:"limit"`
	Search      string `form:"search"`
	AuthorID    string `form:"authorId"`
	IsPublished string `form:"isPublished"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
}

func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Page, positiveInt),
		validation.Field(&p.Limit, positiveInt),
		validation.Field(&p.AuthorID, positiveInt),
		validation.Field(&p.IsPublished, boolFlag),
		validation.Field(&p.StartDate, validation.By(dateRule)),
		validation.Field(&p.EndDate, validation.By(dateRule)),
	)
}

// Query validates the params and applies defaults. Blank search counts as absent.
func (p ListParams) Query() (domain.ArticleQuery, error) {
	if err := p.Validate(); err != nil {
		return domain.ArticleQuery{}, invalid(err)
	}
	q := domain.ArticleQuery{
		Page:   domain.DefaultPage,
		Limit:  domain.DefaultLimit,
		Search: strings.TrimSpace(p.Search),
	}
	if p.Page != "" {
		q.Page, _ = strconv.Atoi(p.Page)
	}
	if p.Limit != "" {
		q.Limit, _ = strconv.Atoi(p.Limit)
	}
	if p.AuthorID != "" {
		id, _ := strconv.ParseUint(p.AuthorID, 10, 64)
		q.AuthorID = &id
	}
	if p.IsPublished != "" {
		v := p.IsPublished == "true" || p.IsPublished == "1"
		q.IsPublished = &v
	}
	q.StartDate = mustDate(p.StartDate)
	q.EndDate = mustDate(p.EndDate)
	return q, nil
}

func dateRule(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, ok := parseDate(s); !ok {
		return validation.NewError("validation_date", "must be an ISO 8601 date")
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// mustDate 只在 Validate 之后调用
func mustDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, _ := parseDate(s)
	return &t
}

func notBlank(v any) error {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return validation.ErrRequired
		}
	case *string:
		if s != nil && strings.TrimSpace(*s) == "" {
			return validation.ErrRequired
		}
	}
	return nil
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.By(notBlank), validation.RuneLength(0, 255)),
		validation.Field(&in.Description, validation.By(notBlank)),
		validation.Field(&in.Content, validation.NotNil, validation.By(notBlank)),
	)
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.By(notBlank), validation.RuneLength(0, 255)),
		validation.Field(&in.Description, validation.By(notBlank)),
		validation.Field(&in.Content, validation.By(notBlank)),
	)
}

func invalid(err error) error { return fmt.Errorf("%w: %w", domain.ErrValidation, err) }
