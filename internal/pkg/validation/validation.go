package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Company names: letters, digits, spaces, hyphens, apostrophes, ampersands.
var companyNameRe = regexp.MustCompile(`^[A-Za-z0-9\s\-'&.]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidCompanyName rejects empty and punctuation-only names.
func IsValidCompanyName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	return companyNameRe.MatchString(trimmed)
}
