// Package validate centralizes the pre-flight checks and normalization shared
// by the session manager and the HTTP layer. Everything here is pure; a value
// rejected by this package never reaches a backend call.
package validate

import (
	"regexp"
	"strings"

	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

const (
	// MinPasswordLength is the account password policy minimum.
	MinPasswordLength = 6
	// OTPLength is the expected one-time code length.
	OTPLength = 6
	// minPhoneDigits rejects obviously short phone numbers pre-flight.
	minPhoneDigits = 10
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitRe = regexp.MustCompile(`[0-9]`)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email validates an address, returning its normalized form.
func Email(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if !emailRe.MatchString(normalized) {
		return "", apperrors.NewValidationError("invalid email format", map[string]any{"field": "email"})
	}
	return normalized, nil
}

// Phone normalizes a phone number to canonical international form: strip
// everything but digits, keep an explicit leading "+", and prefix the default
// country code when a bare national number is given. Normalization is
// idempotent. Numbers with fewer than ten digits fail pre-flight.
func Phone(raw, defaultCountryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	hasPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()

	if len(number) < minPhoneDigits {
		return "", apperrors.NewValidationError("invalid phone format", map[string]any{"field": "phone"})
	}
	if hasPlus || len(number) > minPhoneDigits {
		return "+" + number, nil
	}
	if defaultCountryCode == "" {
		defaultCountryCode = "1"
	}
	return "+" + defaultCountryCode + number, nil
}

// Password enforces the account password policy.
func Password(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewWeakCredential("password must be at least 6 characters")
	}
	return nil
}

// OTP checks the shape of a one-time code before dispatch.
func OTP(code string) error {
	if len(code) != OTPLength || len(digitRe.FindAllString(code, -1)) != OTPLength {
		return apperrors.NewValidationError("invalid verification code", map[string]any{"field": "code"})
	}
	return nil
}
