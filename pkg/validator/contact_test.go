package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	v := NewContactValidator()

	valid := []string{
		"jane@example.com",
		"jane.doe+tag@sub.example.co.uk",
	}
	for _, email := range valid {
		assert.NoError(t, v.ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"jane",
		"jane@",
		"@example.com",
		"jane@example",
		"jane doe@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, v.ValidateEmail(email), email)
	}
}

func TestValidatePhone(t *testing.T) {
	v := NewContactValidator()

	valid := []string{
		"0771234567",
		"+14155550123",
		"077 123 4567",
		"077-123-4567",
		"(415) 555-0123",
	}
	for _, phone := range valid {
		assert.NoError(t, v.ValidatePhone(phone), phone)
	}

	invalid := []string{
		"",
		"12345",
		"not-a-phone",
		"+1234567890123456",
	}
	for _, phone := range invalid {
		assert.Error(t, v.ValidatePhone(phone), phone)
	}
}

func TestSanitizePhone(t *testing.T) {
	v := NewContactValidator()

	assert.Equal(t, "0771234567", v.SanitizePhone("077 123 4567"))
	assert.Equal(t, "0771234567", v.SanitizePhone("077-123-4567"))
	assert.Equal(t, "+14155550123", v.SanitizePhone("+1 (415) 555-0123"))
}

func TestInvalidFields(t *testing.T) {
	v := NewContactValidator()

	t.Run("All Valid", func(t *testing.T) {
		fields := v.InvalidFields("Jane Doe", "jane@example.com", "+14155550123")
		assert.Empty(t, fields)
	})

	t.Run("All Invalid", func(t *testing.T) {
		fields := v.InvalidFields("", "nope", "abc")
		assert.Equal(t, []string{"fullName", "email", "phone"}, fields)
	})

	t.Run("Only Email Invalid", func(t *testing.T) {
		fields := v.InvalidFields("Jane Doe", "nope", "+14155550123")
		assert.Equal(t, []string{"email"}, fields)
	})
}
