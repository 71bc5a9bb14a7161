package usecase

import (
	"context"
	"log/slog"
	"math"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/valueobject"
)

type OTPSendInput struct {
	PhoneNumber string `validate:"required"`

	// Request context persisted with the record for audit.
	ClientIP  string
	UserAgent string
}

type OTPSendOutput struct {
	ExpiresInSeconds int64
}

// OTPSend issues a fresh code for the phone number, replacing any code still
// pending for it. Delivery failures do not fail the request; the code is
// already persisted and verifiable.
func (s *Usecase) OTPSend(ctx context.Context, in OTPSendInput) (*OTPSendOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPSend")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	phoneNumber, err := s.phones.Canonicalize(in.PhoneNumber)
	if err != nil {
		slog.WarnContext(ctx, "rejected malformed phone number", "error", err)
		return nil, goerror.NewInvalidFormat("phone number must be in international format")
	}

	wait, err := s.repoCache.OTPCooldown(ctx, phoneNumber)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read otp cooldown", "error", err)
		return nil, goerror.NewServer(err)
	}
	if wait > 0 {
		waitSeconds := int64(math.Ceil(wait.Seconds()))
		slog.WarnContext(ctx, "otp request rate limited", "wait_seconds", waitSeconds)
		return nil, goerror.NewRateLimited("please wait before requesting another code", waitSeconds)
	}

	code, err := s.codes.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.otpTTL()
	otpID := s.uid.Generate()
	now := s.clock.Now()

	metadata := valueobject.JSONMap{"channel": "whatsapp"}
	if in.ClientIP != "" {
		metadata["client_ip"] = in.ClientIP
	}
	if in.UserAgent != "" {
		metadata["user_agent"] = in.UserAgent
	}

	if err := s.repoDB.ReplaceOTP(ctx, entity.NewOTP{
		ID:          otpID,
		PhoneNumber: phoneNumber,
		CodeHash:    string(codeHash),
		Metadata:    metadata,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to persist otp record", "otp_id", otpID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The tombstone is best effort. Losing it briefly widens the resend
	// window, it does not affect verification.
	if err := s.repoCache.MarkOTPIssued(ctx, phoneNumber, s.resendWindow()); err != nil {
		slog.WarnContext(ctx, "failed to mark otp cooldown", "otp_id", otpID, "error", err)
	}

	if err := s.repoMessaging.PublishOTPIssued(ctx, OTPIssuedEvent{
		OTPID:            otpID,
		PhoneNumber:      phoneNumber,
		Code:             code,
		ExpiresInMinutes: int64(ttl.Minutes()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp issued event", "otp_id", otpID, "error", err)
	}

	return &OTPSendOutput{ExpiresInSeconds: int64(ttl.Seconds())}, nil
}
