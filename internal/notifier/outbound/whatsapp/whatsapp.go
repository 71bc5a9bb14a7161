package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

// Gateway sends text messages through a WhatsApp HTTP gateway. Transient
// failures (network errors, 5xx, 429) are retried with exponential backoff;
// other 4xx responses are permanent.
type Gateway struct {
	baseURL string
	token   string
	http    *http.Client
	retries uint64
	ins     instrument.Instrumentation
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint64
}

func NewGateway(cfg Config, ins instrument.Instrumentation) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}

	return &Gateway{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		ins:     ins,
	}
}

type sendMessageRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (g *Gateway) SendMessage(ctx context.Context, phoneNumber, body string) error {
	ctx, span := g.ins.Tracer("notifier.outbound.whatsapp").Start(ctx, "SendMessage")
	defer span.End()

	payload, err := json.Marshal(sendMessageRequest{To: phoneNumber, Body: body})
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(g.retries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return g.send(ctx, payload)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (g *Gateway) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.RetryableError(fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode))
	default:
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
}
