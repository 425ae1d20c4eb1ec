package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/triagem/internal/model"
)

// ErrMalformedDate is returned when a declared expiry date cannot be parsed
var ErrMalformedDate = errors.New("malformed date value")

// expiryLayouts are tried in order; Brazilian day-first dates are common in uploads
var expiryLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
}

// Validator performs content-level checks on a matched submission
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator; a nil clock uses time.Now
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate returns the issues found for doc under rule, in a stable order:
// expiry first, then required fields in rule order. No issues means valid.
func (v *Validator) Validate(rule model.ChecklistRule, doc model.DocumentSubmission) []string {
	var issues []string

	if rule.ValidateExpiry && doc.HasExpiry() {
		if issue := v.checkExpiry(rule.Label, doc.ExpiryDate); issue != "" {
			issues = append(issues, issue)
		}
	}

	for _, field := range rule.RequiredFields {
		if strings.TrimSpace(doc.Fields[field]) == "" {
			issues = append(issues, fmt.Sprintf("required field '%s' missing in %s", field, rule.Label))
		}
	}

	return issues
}

func (v *Validator) checkExpiry(label, raw string) string {
	expiry, err := ParseExpiry(raw)
	if err != nil {
		return fmt.Sprintf("expiry date %q of %s could not be parsed", raw, label)
	}

	if Expired(expiry, v.now()) {
		return fmt.Sprintf("document %s expired on %s", label, expiry.Format(time.DateOnly))
	}
	return ""
}

// ParseExpiry parses a declared expiry date in any supported layout
func ParseExpiry(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedDate)
	}

	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}

// Expired reports whether the expiry's calendar date is before now's calendar date.
// A document expiring today is still valid.
func Expired(expiry, now time.Time) bool {
	ey, em, ed := expiry.Date()
	ny, nm, nd := now.Date()
	expiryDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return expiryDay.Before(today)
}
