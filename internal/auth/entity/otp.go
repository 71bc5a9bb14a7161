package entity

import (
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/valueobject"
)

type OTP struct {
	ID          int64
	PhoneNumber string
	CodeHash    string
	Attempts    int16
	Metadata    valueobject.JSONMap
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type NewOTP struct {
	ID          int64
	PhoneNumber string
	CodeHash    string
	Metadata    valueobject.JSONMap
	ExpiresAt   time.Time
}

type OTPAttempt struct {
	PhoneNumber string
	CodeHash    string
	MaxAttempts int16
	Now         time.Time
}

// OTPAttemptOutcome is the terminal classification of a single verify call
// against the stored record.
type OTPAttemptOutcome int

const (
	OTPAttemptOutcomeUnknown OTPAttemptOutcome = iota
	// OTPAttemptOutcomeMatched means the code matched and the record was consumed.
	OTPAttemptOutcomeMatched
	// OTPAttemptOutcomeMismatched means the code did not match; the record
	// survives unless the attempt budget is now spent.
	OTPAttemptOutcomeMismatched
	// OTPAttemptOutcomeExpired means the record outlived its deadline and was removed.
	OTPAttemptOutcomeExpired
	// OTPAttemptOutcomeExhausted means the attempt budget was already spent
	// before this call and the record was removed.
	OTPAttemptOutcomeExhausted
)

type OTPAttemptResult struct {
	Outcome OTPAttemptOutcome

	// Attempts is the attempt counter after this call: unchanged on a match,
	// incremented on a mismatch.
	Attempts int16
}
