package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyName indicates the full name is missing
	ErrEmptyName = errors.New("full name cannot be empty")

	// ErrInvalidEmail indicates the email address is malformed
	ErrInvalidEmail = errors.New("email address is invalid")

	// ErrInvalidPhone indicates the phone number is malformed
	ErrInvalidPhone = errors.New("phone number is invalid")
)

// emailRegex is a pragmatic address check, not an RFC 5322 parser
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// phoneRegex matches digits with an optional leading plus
var phoneRegex = regexp.MustCompile(`^\+?\d{7,15}$`)

// ContactValidator validates checkout contact details
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// ValidateName checks that a full name is present
func (v *ContactValidator) ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateEmail checks an email address
func (v *ContactValidator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks a phone number after stripping common separators.
// Accepts formats like 0771234567, +94 77 123 4567, or 077-123-4567.
func (v *ContactValidator) ValidatePhone(phone string) error {
	sanitized := v.SanitizePhone(phone)
	if sanitized == "" || !phoneRegex.MatchString(sanitized) {
		return ErrInvalidPhone
	}
	return nil
}

// SanitizePhone removes spaces, dashes, parentheses, and dots
func (v *ContactValidator) SanitizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// InvalidFields returns the names of every invalid contact field, in the
// order fullName, email, phone. An empty slice means the contact is valid.
func (v *ContactValidator) InvalidFields(fullName, email, phone string) []string {
	var fields []string
	if v.ValidateName(fullName) != nil {
		fields = append(fields, "fullName")
	}
	if v.ValidateEmail(email) != nil {
		fields = append(fields, "email")
	}
	if v.ValidatePhone(phone) != nil {
		fields = append(fields, "phone")
	}
	return fields
}
