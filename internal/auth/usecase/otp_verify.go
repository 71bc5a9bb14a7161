package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
)

type OTPVerifyInput struct {
	PhoneNumber string `validate:"required"`
	Code        string `validate:"required,otpcode"`
}

type OTPVerifyOutput struct {
	Session           entity.Session
	RemainingAttempts int16
}

// OTPVerify checks the submitted code against the pending record and, on a
// match, hands off to the session minter. The record is consumed on every
// terminal outcome, so a minting failure cannot be retried with the same code.
func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) (*OTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	phoneNumber, err := s.phones.Canonicalize(in.PhoneNumber)
	if err != nil {
		slog.WarnContext(ctx, "rejected malformed phone number", "error", err)
		return nil, goerror.NewInvalidFormat("phone number must be in international format")
	}

	codeHash, err := s.hmac.Hash(in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	maxAttempts := s.maxAttempts()
	res, err := s.repoDB.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
		PhoneNumber: phoneNumber,
		CodeHash:    string(codeHash),
		MaxAttempts: maxAttempts,
		Now:         s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusinessFields("no OTP found for this phone number", goerror.CodeDenied,
			"remaining_attempts", "0")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume otp attempt", "error", err)
		return nil, goerror.NewServer(err)
	}

	switch res.Outcome {
	case entity.OTPAttemptOutcomeExpired:
		return nil, goerror.NewBusinessFields("OTP code has expired", goerror.CodeDenied,
			"remaining_attempts", "0")

	case entity.OTPAttemptOutcomeExhausted:
		return nil, goerror.NewBusinessFields("maximum verification attempts exceeded", goerror.CodeDenied,
			"remaining_attempts", "0")

	case entity.OTPAttemptOutcomeMismatched:
		remaining := maxAttempts - res.Attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, goerror.NewBusinessFields("Invalid OTP code", goerror.CodeDenied,
			"remaining_attempts", strconv.Itoa(int(remaining)))

	case entity.OTPAttemptOutcomeMatched:
		session, err := s.minter.Mint(ctx, phoneNumber)
		if err != nil {
			slog.ErrorContext(ctx, "failed to mint session after otp match", "error", err)
			return nil, goerror.NewServer(err)
		}

		return &OTPVerifyOutput{
			Session:           *session,
			RemainingAttempts: maxAttempts - res.Attempts,
		}, nil

	default:
		slog.ErrorContext(ctx, "unexpected otp attempt outcome", "outcome", res.Outcome)
		return nil, goerror.NewServer(errors.New("unexpected otp attempt outcome"))
	}
}
