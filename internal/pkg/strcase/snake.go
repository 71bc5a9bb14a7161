package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a Go field name to snake_case, keeping acronyms
// intact (PhoneNumber -> phone_number, OTPCode -> otp_code, userID ->
// user_id).
func ToLowerSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && snakeBoundary(runes, i) {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// snakeBoundary reports whether a word break belongs before runes[i].
// That happens after a lower/digit rune, or where an acronym run ends
// and a new word starts (the P in HTTPServer).
func snakeBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
