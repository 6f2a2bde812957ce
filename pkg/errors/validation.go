package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxIDLength bounds flow and snapshot identifiers.
const maxIDLength = 256

// ValidateID validates a flow or snapshot identifier before it is written to
// the output protocol.
//
// The rules keep the colon-delimited output unambiguous:
//   - No empty identifiers
//   - No control characters (the input delimiter is one)
//   - No ':' or ',' (output field and list separators)
//   - Maximum length of 256 bytes
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedLine, "identifier cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeMalformedLine, "identifier too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeMalformedLine, "identifier contains control characters: %q", id)
		}
	}

	if strings.ContainsAny(id, ":,") {
		return New(ErrCodeMalformedLine, "identifier contains a reserved separator: %q", id)
	}

	return nil
}

// ValidateDelimiter validates the input field delimiter.
// It must be exactly one character that cannot occur inside a field:
// no letters, digits, spaces or newlines.
func ValidateDelimiter(d string) error {
	if utf8.RuneCountInString(d) != 1 {
		return New(ErrCodeInvalidConfig, "delimiter must be a single character, got %q", d)
	}

	r, _ := utf8.DecodeRuneInString(d)
	switch {
	case r == '\n' || r == '\r':
		return New(ErrCodeInvalidConfig, "delimiter cannot be a line break")
	case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
		return New(ErrCodeInvalidConfig, "delimiter cannot be a letter, digit or space: %q", d)
	}

	return nil
}
