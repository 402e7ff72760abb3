// Package validation holds the format checks shared by the built-in
// validation types and the request layer.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// E.164 after stripping spaces, dashes and parentheses.
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	urlPattern   = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Format names understood by Check.
const (
	FormatEmail = "email"
	FormatPhone = "phone"
	FormatURL   = "url"
)

// Formats lists every supported format name.
var Formats = []string{FormatEmail, FormatPhone, FormatURL}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidatePhone validates a phone number, tolerating common separators.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phoneSeparators.Replace(strings.TrimSpace(phone)))
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(strings.TrimSpace(url))
}

// Check validates s against the named format.
func Check(format, s string) (bool, error) {
	switch format {
	case FormatEmail:
		return ValidateEmail(s), nil
	case FormatPhone:
		return ValidatePhone(s), nil
	case FormatURL:
		return ValidateURL(s), nil
	default:
		return false, fmt.Errorf("unknown format %q", format)
	}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`)

// ValidateIdentifier checks that a form or field id is safe to use as a
// cache key and URL segment.
func ValidateIdentifier(id string) error {
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("identifier %q must be 1-128 characters of letters, digits, '_', '.', ':' or '-'", id)
	}
	return nil
}
