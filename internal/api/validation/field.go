package validation

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func required(errs []FieldError, field, value string) ([]FieldError, bool) {
	if strings.TrimSpace(value) == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"}), false
	}
	return errs, true
}

func maxLen(errs []FieldError, field, value string, n int) []FieldError {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > n {
		errs = append(errs, FieldError{Field: field, Message: field + " must be at most " + strconv.Itoa(n) + " characters"})
	}
	return errs
}

func email(errs []FieldError, field, value string) []FieldError {
	errs, ok := required(errs, field, value)
	if !ok {
		return errs
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		errs = append(errs, FieldError{Field: field, Message: field + " must be a valid email address"})
	}
	return errs
}
