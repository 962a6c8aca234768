package page

import (
	"fmt"
	"strings"
)

// ValidationResult reports whether an input passed validation, with one
// message per failing field. It is checked before every mutating call instead
// of relying on the caller to pre-filter input.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func (v *ValidationResult) fail(field, message string) {
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	v.Errors[field] = message
	v.Valid = false
}

// ValidationError wraps a failed ValidationResult as an error so transport
// layers can surface the per-field messages.
type ValidationError struct {
	Result ValidationResult
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Result.Errors))
	for field := range e.Result.Errors {
		fields = append(fields, field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// CreateInput carries the fields required to create a page.
type CreateInput struct {
	Title          string
	Slug           string
	PageType       PageType
	Status         Status
	SEOTitle       string
	SEODescription string
}

func (in *CreateInput) validate() *ValidationResult {
	result := newValidationResult()

	if strings.TrimSpace(in.Title) == "" {
		result.fail("title", "title is required")
	}
	if strings.TrimSpace(in.Slug) == "" && GenerateSlug(in.Title) == "" {
		result.fail("slug", "slug is required")
	}
	if in.PageType != "" && !in.PageType.Valid() {
		result.fail("pageType", fmt.Sprintf("unknown page type: %s", in.PageType))
	}
	if in.Status != "" && !in.Status.Valid() {
		result.fail("status", fmt.Sprintf("unknown status: %s", in.Status))
	}

	return result
}

// UpdateInput carries a partial metadata update for a page. Nil fields are
// left untouched.
type UpdateInput struct {
	Title          *string
	Slug           *string
	PageType       *PageType
	Status         *Status
	SEOTitle       *string
	SEODescription *string
}

func (in *UpdateInput) validate() *ValidationResult {
	result := newValidationResult()

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		result.fail("title", "title cannot be empty")
	}
	if in.Slug != nil && GenerateSlug(*in.Slug) == "" {
		result.fail("slug", "slug cannot be empty")
	}
	if in.PageType != nil && !in.PageType.Valid() {
		result.fail("pageType", fmt.Sprintf("unknown page type: %s", *in.PageType))
	}
	if in.Status != nil && !in.Status.Valid() {
		result.fail("status", fmt.Sprintf("unknown status: %s", *in.Status))
	}

	return result
}
