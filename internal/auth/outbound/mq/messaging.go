package mq

import (
	"context"
	"encoding/json"

	"github.com/radityaferdi/otpgate/internal/auth/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{
		OTPID:            msg.OTPID,
		PhoneNumber:      msg.PhoneNumber,
		Code:             msg.Code,
		ExpiresInMinutes: msg.ExpiresInMinutes,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OTPIssuedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
