package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/radityaferdi/otpgate/internal/notifier/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/shared/event"
)

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m *fakeMessage) Body() []byte                  { return m.body }
func (m *fakeMessage) Headers() []messaging.Header   { return m.headers }
func (m *fakeMessage) Attributes() map[string]string { return nil }
func (m *fakeMessage) ID() string                    { return "msg-1" }
func (m *fakeMessage) Topic() string                 { return event.OTPIssuedDestination }
func (m *fakeMessage) Timestamp() time.Time          { return time.Time{} }
func (m *fakeMessage) Ack(context.Context) error     { return nil }
func (m *fakeMessage) Nack(context.Context) error    { return nil }

type fakeUC struct {
	fn func(ctx context.Context, in usecase.SendCodeInput) error
}

func (f *fakeUC) SendCode(ctx context.Context, in usecase.SendCodeInput) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, in)
}

type fakeStringID struct{ id string }

func (g fakeStringID) Generate() string { return g.id }

func newHandler(uc uc) *MQHandler {
	return &MQHandler{uc: uc, uuid: fakeStringID{id: "generated-cid"}, ins: instrument.NewNoop()}
}

func TestOTPIssuedNotificationForwardsPayload(t *testing.T) {
	var got usecase.SendCodeInput
	h := newHandler(&fakeUC{fn: func(_ context.Context, in usecase.SendCodeInput) error {
		got = in
		return nil
	}})

	body, _ := json.Marshal(event.OTPIssuedMessage{
		OTPID:            42,
		PhoneNumber:      "+6281234567890",
		Code:             "123456",
		ExpiresInMinutes: 5,
	})

	if err := h.OTPIssuedNotification(context.Background(), &fakeMessage{body: body}); err != nil {
		t.Fatalf("OTPIssuedNotification() error = %v", err)
	}

	want := usecase.SendCodeInput{OTPID: 42, PhoneNumber: "+6281234567890", Code: "123456", ExpiresInMinutes: 5}
	if got != want {
		t.Errorf("SendCode received %+v, want %+v", got, want)
	}
}

func TestOTPIssuedNotificationDropsMalformedBody(t *testing.T) {
	called := false
	h := newHandler(&fakeUC{fn: func(context.Context, usecase.SendCodeInput) error {
		called = true
		return nil
	}})

	// A body that can never parse must not be redelivered forever.
	if err := h.OTPIssuedNotification(context.Background(), &fakeMessage{body: []byte("not-json")}); err != nil {
		t.Fatalf("OTPIssuedNotification() error = %v, want nil", err)
	}
	if called {
		t.Error("SendCode must not run for a malformed body")
	}
}

func TestOTPIssuedNotificationPropagatesDeliveryFailure(t *testing.T) {
	h := newHandler(&fakeUC{fn: func(context.Context, usecase.SendCodeInput) error {
		return errors.New("gateway down")
	}})

	body, _ := json.Marshal(event.OTPIssuedMessage{OTPID: 42, PhoneNumber: "+62", Code: "1", ExpiresInMinutes: 5})
	if err := h.OTPIssuedNotification(context.Background(), &fakeMessage{body: body}); err == nil {
		t.Fatal("OTPIssuedNotification() expected the delivery failure to surface")
	}
}

func TestEnsureCorrelationID(t *testing.T) {
	h := newHandler(&fakeUC{})

	ctx := h.ensureCorrelationID(context.Background(), []messaging.Header{
		{Key: "cID", Value: []byte("upstream-cid")},
	})
	if got := instrument.GetCorrelationID(ctx); got != "upstream-cid" {
		t.Errorf("correlation ID = %q, want the upstream value", got)
	}

	ctx = h.ensureCorrelationID(context.Background(), nil)
	if got := instrument.GetCorrelationID(ctx); got != "generated-cid" {
		t.Errorf("correlation ID = %q, want a freshly generated one", got)
	}
}
