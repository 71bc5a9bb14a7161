package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/radityaferdi/otpgate/internal/notifier/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
	"github.com/radityaferdi/otpgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type uc interface {
	SendCode(ctx context.Context, in usecase.SendCodeInput) error
}

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notifier.inbound.mq").Start(ctx, "OTPIssuedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp issued notification", "msg_id", msg.ID())

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.SendCode(ctx, usecase.SendCodeInput{
		OTPID:            payload.OTPID,
		PhoneNumber:      payload.PhoneNumber,
		Code:             payload.Code,
		ExpiresInMinutes: payload.ExpiresInMinutes,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued notification", "otp_id", payload.OTPID, "error", err)
		return err
	}

	return nil
}
