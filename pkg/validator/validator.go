package validator

import (
	"errors"
	"slices"
	"strings"
)

// FieldError is one failed rule. Code is stable and safe to match on.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Errors is every failure reported by one Apply call.
type Errors []FieldError

func (e Errors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for i, fe := range e {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(fe.Field + ": " + fe.Message)
	}
	return b.String()
}

// Fields lists each failing field once, in the order it first failed.
func (e Errors) Fields() []string {
	var out []string
	for _, fe := range e {
		if !slices.Contains(out, fe.Field) {
			out = append(out, fe.Field)
		}
	}
	return out
}

// Map groups failure messages by field.
func (e Errors) Map() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Rule pairs a deferred check with the failure it reports.
type Rule struct {
	Check   func() bool
	Failure FieldError
}

// Apply evaluates all rules, not stopping at the first failure. The result
// is nil or Errors.
func Apply(rules ...Rule) error {
	var errs Errors
	for _, r := range rules {
		if !r.Check() {
			errs = append(errs, r.Failure)
		}
	}
	if errs == nil {
		return nil
	}
	return errs
}

// Extract finds Errors anywhere in err's chain.
func Extract(err error) Errors {
	var errs Errors
	if errors.As(err, &errs) {
		return errs
	}
	return nil
}

func IsValidation(err error) bool {
	return Extract(err) != nil
}
