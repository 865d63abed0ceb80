package policy

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	loginRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+\.[a-zA-Z]{2,}$`)
	postalCodeRe = regexp.MustCompile(`^\d{5}$`)
)

// ValidateLogin checks that login is an e-mail style address (name@domain.tld).
func ValidateLogin(login string) error {
	if strings.TrimSpace(login) == "" {
		return &ValidationError{Field: "login", Message: "Email cannot be empty"}
	}
	if !loginRe.MatchString(login) {
		return &ValidationError{Field: "login", Message: "Invalid email format (e.g. name@domain.com)"}
	}
	return nil
}

// ValidatePostalCode accepts 5-digit French postal codes: metropolitan and
// Corsica (01000-95999), overseas departments (97100-97699) and overseas
// collectivities (98000-98899).
func ValidatePostalCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return &ValidationError{Field: "postal_code", Message: "Postal code cannot be empty"}
	}
	if !postalCodeRe.MatchString(code) {
		return &ValidationError{Field: "postal_code", Message: "Postal code must contain 5 digits"}
	}

	n, _ := strconv.Atoi(code)
	switch {
	case n >= 1000 && n <= 95999:
	case n >= 97100 && n <= 97699:
	case n >= 98000 && n <= 98899:
	default:
		return &ValidationError{Field: "postal_code", Message: "Invalid French postal code"}
	}
	return nil
}
