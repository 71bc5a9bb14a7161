package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/idempotency"
)

type SendCodeInput struct {
	OTPID            int64  `validate:"required,gt=0"`
	PhoneNumber      string `validate:"required"`
	Code             string `validate:"required"`
	ExpiresInMinutes int64  `validate:"required,gt=0"`
}

type codeTemplateData struct {
	Code             string
	ExpiresInMinutes int64
}

// SendCode delivers the code over the WhatsApp gateway. Each OTP record is
// delivered at most once across redeliveries of the same event; the
// idempotency state lives slightly longer than the code itself.
func (s *Usecase) SendCode(ctx context.Context, in SendCodeInput) error {
	ctx, span := s.startSpan(ctx, "SendCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed", "otp_id", in.OTPID, "error", err)
		return nil
	}

	body, err := s.renderTemplate("otp_code", s.codeTemplate(ctx), codeTemplateData{
		Code:             in.Code,
		ExpiresInMinutes: in.ExpiresInMinutes,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render message template", "otp_id", in.OTPID, "error", err)
		return err
	}

	stateTTL := time.Duration(in.ExpiresInMinutes+5) * time.Minute
	key := "otp_send:" + strconv.FormatInt(in.OTPID, 10)

	err = s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.gateway.SendMessage(ctx, in.PhoneNumber, body)
	}, idempotency.WithStateTTL(stateTTL))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "skipping duplicate otp delivery", "otp_id", in.OTPID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		// The gateway already exhausted its retries for this code. The
		// user can request a fresh one once the resend window passes.
		slog.WarnContext(ctx, "otp delivery previously failed, not retrying", "otp_id", in.OTPID)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to deliver otp code", "otp_id", in.OTPID, "error", err)
		return err
	}

	return nil
}
