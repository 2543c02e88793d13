package services

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Australian mobiles and landlines, with or without the country prefix.
	defaultPhoneRegex = regexp.MustCompile(`^(\+?61|0)[2-478]\d{8}$`)
	abnDigitsRegex    = regexp.MustCompile(`^\d{11}$`)
)

// Violation is a single failed rule against one field of a candidate record.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult partitions rule failures into hard errors (row rejected)
// and soft warnings (row persisted, warning recorded on the job).
type ValidationResult struct {
	Errors   []Violation
	Warnings []Violation
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// RowValidator checks mapped rows against format rules. StrictValidation
// escalates soft failures to hard errors; SkipValidation bypasses everything
// except the required-name check, which is never skippable.
type RowValidator struct {
	StrictValidation bool
	SkipValidation   bool
	phoneRegex       *regexp.Regexp
}

func NewRowValidator(strict, skip bool) *RowValidator {
	return &RowValidator{
		StrictValidation: strict,
		SkipValidation:   skip,
		phoneRegex:       defaultPhoneRegex,
	}
}

// SetPhonePattern swaps the national phone grammar. Invalid patterns are
// ignored and the default kept.
func (v *RowValidator) SetPhonePattern(pattern string) {
	if pattern == "" {
		return
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return
	}
	v.phoneRegex = re
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Validate evaluates every rule independently; rules are not short-circuited
// so operators see all problems with a row at once.
func (v *RowValidator) Validate(record map[string]string) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(record["name"]) == "" {
		result.Errors = append(result.Errors, Violation{Field: "name", Message: "Business name is required"})
	}

	if v.SkipValidation {
		return result
	}

	report := func(violation Violation) {
		if v.StrictValidation {
			result.Errors = append(result.Errors, violation)
		} else {
			result.Warnings = append(result.Warnings, violation)
		}
	}

	if email, ok := record["email"]; ok {
		if !emailRegex.MatchString(strings.TrimSpace(email)) {
			report(Violation{Field: "email", Message: "Invalid email address format"})
		}
	}

	if phone, ok := record["phone"]; ok {
		if !v.phoneRegex.MatchString(stripWhitespace(phone)) {
			report(Violation{Field: "phone", Message: "Invalid phone number format"})
		}
	}

	if abn, ok := record["abn"]; ok {
		if !abnDigitsRegex.MatchString(stripWhitespace(abn)) {
			report(Violation{Field: "abn", Message: "ABN must be exactly 11 digits"})
		}
	}

	if website, ok := record["website"]; ok {
		parsed, err := url.Parse(strings.TrimSpace(website))
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			report(Violation{Field: "website", Message: "Website must be an absolute URL"})
		}
	}

	return result
}
