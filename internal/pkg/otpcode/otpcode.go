// Package otpcode generates one-time passcodes.
//
// Codes are uniformly random fixed-width numeric strings. Leading zeros are
// preserved, so every code in the space is equally likely and always has the
// same width.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultDigits is the code width used when an invalid width is requested.
const DefaultDigits = 6

// Generator produces one-time passcodes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates uniformly random numeric codes using crypto/rand.
type Numeric struct {
	digits int
	max    *big.Int
}

// NewNumeric returns a generator producing codes of the given width.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = DefaultDigits
	}

	max := big.NewInt(10)
	max.Exp(max, big.NewInt(int64(digits)), nil)

	return &Numeric{digits: digits, max: max}
}

// Generate returns a new zero-padded numeric code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.max)
	if err != nil {
		return "", fmt.Errorf("otpcode: %w", err)
	}

	return fmt.Sprintf("%0*d", n.digits, v), nil
}
