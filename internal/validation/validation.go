// Package validation holds the field rules applied to user writes: the email
// shape check and phone number normalization.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var DefaultPhonePrefixes = []string{"07", "01", "254"}

const phoneDigits = 10

// emailPattern is a shape check only: something@something.something with no
// extra '@'. It is not RFC 5322.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// Error is a rejected field. It aborts the whole write it belongs to.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

type Validator struct {
	phonePrefixes []string
}

// New returns a Validator accepting phone numbers that start with one of
// prefixes. An empty list falls back to DefaultPhonePrefixes.
func New(phonePrefixes []string) *Validator {
	cleaned := make([]string, 0, len(phonePrefixes))
	for _, p := range phonePrefixes {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}

	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultPhonePrefixes...)
	}

	return &Validator{phonePrefixes: cleaned}
}

func Default() *Validator {
	return New(nil)
}

func (v *Validator) PhonePrefixes() []string {
	out := make([]string, len(v.phonePrefixes))
	copy(out, v.phonePrefixes)
	return out
}

// Email returns value unchanged when it has the local@domain.tld shape.
func (v *Validator) Email(value string) (string, error) {
	if !emailPattern.MatchString(value) {
		return "", &Error{Field: "email", Message: "invalid email address"}
	}

	return value, nil
}

// Phone strips whitespace and dashes and returns the remaining digits when
// they are exactly ten long and start with a configured prefix.
func (v *Validator) Phone(value string) (string, error) {
	normalized := NormalizePhone(value)

	if normalized == "" {
		return "", &Error{Field: "phone_number", Message: "phone number is required"}
	}

	if len(normalized) != phoneDigits || !allDigits(normalized) {
		return "", &Error{Field: "phone_number", Message: "phone number must be exactly 10 digits"}
	}

	for _, prefix := range v.phonePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return normalized, nil
		}
	}

	return "", &Error{
		Field:   "phone_number",
		Message: "phone number must start with one of " + strings.Join(v.phonePrefixes, ", "),
	}
}

func NormalizePhone(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, value)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
