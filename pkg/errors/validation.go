package errors

import (
	"strings"
	"unicode"
)

// ValidateIdentifier validates an OLS identifier (ontology id, IRI, short
// form or OBO id) before it is placed in a request path.
//
// Identifiers are double URL-encoded downstream, so reserved characters are
// fine; the rules only reject values that can never name a resource:
//   - No empty or whitespace-only identifiers
//   - No control characters or null bytes
//   - Maximum length of 2048 characters
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeBadParameter, "identifier cannot be empty")
	}

	if len(id) > 2048 {
		return New(ErrCodeBadParameter, "identifier too long (max 2048 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeBadParameter, "identifier contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeBadParameter, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeBadParameter, "URL must use http or https scheme")
	}

	return nil
}
