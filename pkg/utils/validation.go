package utils

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"mangareader/pkg/models"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address is a bare RFC 5322 address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return models.Invalidf("invalid email address")
	}
	return nil
}

// ValidatePassword checks length bounds only
func ValidatePassword(password string) error {
	n := len(password)
	if n < MinPasswordLength {
		return models.Invalidf("password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return models.Invalidf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// ValidateDisplayName allows empty names, otherwise up to 50 characters
func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(name) > 50 {
		return models.Invalidf("display name must be at most 50 characters")
	}
	return nil
}

// ValidateMangaTitle validates manga title
func ValidateMangaTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 2 || n > 255 {
		return models.Invalidf("title must be between 2 and 255 characters")
	}
	return nil
}

// ValidateRating checks the 0..5 scale
func ValidateRating(r float64) error {
	if r < 0 || r > models.MaxRating {
		return models.Invalidf("rating must be between 0 and %g", models.MaxRating)
	}
	return nil
}

// ValidatePrice checks a chapter price in coins
func ValidatePrice(price int) error {
	if price < 0 {
		return models.Invalidf("price must not be negative")
	}
	return nil
}
