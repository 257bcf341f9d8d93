package domain

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// =============================================================================
// Safe Name Generation
// =============================================================================

// SafeName converts a display name to its normalized lookup form.
//
// The transformation rules are:
//   - Non-ASCII text is transliterated to ASCII first ("é" becomes "e")
//   - Lowercase letters (a-z) and digits (0-9) are kept as-is
//   - Uppercase letters (A-Z) are converted to lowercase
//   - Runs of spaces, hyphens and underscores become a single hyphen
//   - All other characters are removed
//   - Leading and trailing hyphens are trimmed
//
// Two names with the same safe name refer to the same artist.
//
// Example:
//
//	SafeName("Nova")         // returns "nova"
//	SafeName("Nova  Prime")  // returns "nova-prime"
//	SafeName("Beyoncé")      // returns "beyonce"
//	SafeName("AC/DC")        // returns "acdc"
func SafeName(name string) string {
	ascii := unidecode.Unidecode(name)

	var b strings.Builder
	b.Grow(len(ascii))
	pendingSep := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			pendingSep = true
			continue
		default:
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}
