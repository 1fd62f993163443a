package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
)

var (
	phoneRegex     = regexp.MustCompile(`^(\+[1-9]\d{6,14}|0\d{8,10})$`)
	phoneSeparator = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// RequiredString fails when value is empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check:   func() bool { return strings.TrimSpace(value) != "" },
		Failure: FieldError{Field: field, Message: "field is required", Code: "validation.required"},
	}
}

func MaxLenString(field, value string, maxLen int) Rule {
	return Rule{
		Check:   func() bool { return len([]rune(value)) <= maxLen },
		Failure: FieldError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters long", maxLen),
			Code:    "validation.max_length",
		},
	}
}

// IsEmail reports whether value is a bare email address with a dotted domain.
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	return !slices.Contains(labels, "")
}

// IsPhone reports whether value is an E.164 number or a national number with
// a leading 0, once spaces, dashes, dots and parentheses are stripped.
func IsPhone(value string) bool {
	return phoneRegex.MatchString(phoneSeparator.Replace(strings.TrimSpace(value)))
}

// NormalizePhone strips separators from a phone number.
func NormalizePhone(value string) string {
	return phoneSeparator.Replace(strings.TrimSpace(value))
}

// ValidContact accepts either an email address or a phone number.
func ValidContact(field, value string) Rule {
	return Rule{
		Check:   func() bool { return IsEmail(value) || IsPhone(value) },
		Failure: FieldError{Field: field, Message: "must be an email address or phone number", Code: "validation.contact"},
	}
}

func OneOfString(field, value string, options []string) Rule {
	return Rule{
		Check:   func() bool { return slices.Contains(options, value) },
		Failure: FieldError{
			Field:   field,
			Message: "must be one of: " + strings.Join(options, ", "),
			Code:    "validation.one_of",
		},
	}
}

// When applies rule only if cond holds.
func When(cond bool, rule Rule) Rule {
	return Rule{
		Check:   func() bool { return !cond || rule.Check() },
		Failure: rule.Failure,
	}
}
