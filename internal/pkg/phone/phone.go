// Package phone canonicalizes phone numbers against a configured region
// table before they enter the OTP flow.
//
// The table maps an international dialing prefix (with the leading plus) to
// the national number length accepted for that region, for example
// "+62" -> 11. Numbers from regions outside the table are rejected.
package phone

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrInvalidFormat indicates the number is not in international format.
	ErrInvalidFormat = errors.New("phone: number must be in international format")

	// ErrUnsupportedRegion indicates the dialing prefix is not configured.
	ErrUnsupportedRegion = errors.New("phone: unsupported region prefix")

	// ErrBadLength indicates the national number length does not match the region.
	ErrBadLength = errors.New("phone: national number length does not match region")
)

// Canonicalizer validates and normalizes phone numbers.
type Canonicalizer struct {
	// prefixes sorted longest-first so "+1242" wins over "+1".
	prefixes []string
	lengths  map[string]int
}

// NewCanonicalizer builds a Canonicalizer from a prefix→length table as read
// from config (values are decimal strings).
func NewCanonicalizer(regions map[string]string) (*Canonicalizer, error) {
	if len(regions) == 0 {
		return nil, errors.New("phone: at least one region must be configured")
	}

	lengths := make(map[string]int, len(regions))
	for prefix, raw := range regions {
		prefix = strings.TrimSpace(prefix)
		if !strings.HasPrefix(prefix, "+") || len(prefix) < 2 {
			return nil, fmt.Errorf("phone: invalid region prefix %q", prefix)
		}

		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 4 || n > 14 {
			return nil, fmt.Errorf("phone: invalid national length %q for prefix %q", raw, prefix)
		}
		lengths[prefix] = n
	}

	prefixes := lo.Keys(lengths)
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	return &Canonicalizer{prefixes: prefixes, lengths: lengths}, nil
}

// Canonicalize strips formatting characters and validates the number against
// the region table, returning the canonical "+<digits>" form.
func (c *Canonicalizer) Canonicalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if !strings.HasPrefix(cleaned, "+") {
		return "", ErrInvalidFormat
	}

	digits := cleaned[1:]
	if digits == "" || strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return "", ErrInvalidFormat
	}

	prefix, found := lo.Find(c.prefixes, func(p string) bool {
		return strings.HasPrefix(cleaned, p)
	})
	if !found {
		return "", ErrUnsupportedRegion
	}

	if len(cleaned)-len(prefix) != c.lengths[prefix] {
		return "", ErrBadLength
	}

	return cleaned, nil
}
