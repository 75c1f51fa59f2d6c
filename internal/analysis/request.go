package analysis

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form field names shared by the scoring API, the page forms and deep links.
const (
	FieldCompanyName      = "company_name"
	FieldSymbol           = "symbol"
	FieldAnnouncementText = "announcement_text"
)

// Field prefixes used by the comparison form.
const (
	PrefixLeft  = "left_"
	PrefixRight = "right_"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request is the input of a single analysis.
type Request struct {
	CompanyName      string `json:"company_name" validate:"required"`
	Symbol           string `json:"symbol" validate:"required"`
	AnnouncementText string `json:"announcement_text" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r Request) Trimmed() Request {
	return Request{
		CompanyName:      strings.TrimSpace(r.CompanyName),
		Symbol:           strings.TrimSpace(r.Symbol),
		AnnouncementText: strings.TrimSpace(r.AnnouncementText),
	}
}

// Validate checks that all three fields are non-empty after trimming.
// The untrimmed values are still what gets sent to the service.
func (r Request) Validate() error {
	return validate.Struct(r.Trimmed())
}

// Fields returns the request as form values, each key prefixed by prefix.
func (r Request) Fields(prefix string) url.Values {
	v := url.Values{}
	v.Set(prefix+FieldCompanyName, r.CompanyName)
	v.Set(prefix+FieldSymbol, r.Symbol)
	v.Set(prefix+FieldAnnouncementText, r.AnnouncementText)
	return v
}

// RequestFromValues reads a request from form or query values using the
// given key prefix. Missing keys yield empty fields.
func RequestFromValues(v url.Values, prefix string) Request {
	return Request{
		CompanyName:      v.Get(prefix + FieldCompanyName),
		Symbol:           v.Get(prefix + FieldSymbol),
		AnnouncementText: v.Get(prefix + FieldAnnouncementText),
	}
}

// ComparisonRequest carries the two announcements of a side-by-side run.
type ComparisonRequest struct {
	Left  Request
	Right Request
}

// Validate requires all six fields to be non-empty after trimming.
func (c ComparisonRequest) Validate() error {
	if err := c.Left.Validate(); err != nil {
		return err
	}
	return c.Right.Validate()
}

// Fields returns the combined left_/right_ form values.
func (c ComparisonRequest) Fields() url.Values {
	v := c.Left.Fields(PrefixLeft)
	for k, vals := range c.Right.Fields(PrefixRight) {
		v[k] = vals
	}
	return v
}
