package validation

import "unicode/utf8"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RegisterRequest mirrors the fields needed for sign-up validation.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// ValidateRegisterRequest validates the fields of a sign-up.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	errs, ok := required(errs, "name", req.Name)
	if ok {
		errs = maxLen(errs, "name", req.Name, 255)
	}
	errs = email(errs, "email", req.Email)
	errs = password(errs, "password", req.Password)

	return errs
}

// ValidateLoginRequest validates the fields of a login.
func ValidateLoginRequest(emailAddr, pw string) []FieldError {
	var errs []FieldError
	errs = email(errs, "email", emailAddr)
	errs, _ = required(errs, "password", pw)
	return errs
}

// ValidateForgotPasswordRequest validates a password reset request.
func ValidateForgotPasswordRequest(emailAddr string) []FieldError {
	return email(nil, "email", emailAddr)
}

// ValidateResetPasswordRequest validates a password reset.
func ValidateResetPasswordRequest(token, pw string) []FieldError {
	var errs []FieldError
	errs, _ = required(errs, "token", token)
	errs = password(errs, "password", pw)
	return errs
}

func password(errs []FieldError, field, pw string) []FieldError {
	if pw == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		errs = append(errs, FieldError{Field: field, Message: field + " must be at least 8 characters"})
	}
	return errs
}
