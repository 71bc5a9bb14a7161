package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/jwt"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to the identity provider's account directory. Requests are
// authenticated with a short-lived signed assertion for this service's
// client ID.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	jwt      jwt.JWT
	ins      instrument.Instrumentation
}

type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

func NewClient(cfg Config, signer jwt.JWT, ins instrument.Instrumentation) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		clientID: cfg.ClientID,
		http:     &http.Client{Timeout: timeout},
		jwt:      signer,
		ins:      ins,
	}
}

type accountPayload struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Confirmed   bool   `json:"confirmed"`
}

type sessionPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) FindAccountByPhone(ctx context.Context, phoneNumber string) (acc *entity.Account, err error) {
	ctx, span := c.startSpan(ctx, "FindAccountByPhone")
	defer func() { c.endSpan(span, err) }()

	endpoint := c.baseURL + "/v1/accounts?phone_number=" + url.QueryEscape(phoneNumber)

	var payload accountPayload
	if err = c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	return &entity.Account{
		ID:          payload.ID,
		PhoneNumber: payload.PhoneNumber,
		Confirmed:   payload.Confirmed,
	}, nil
}

func (c *Client) CreateAccount(ctx context.Context, phoneNumber string, confirmed bool) (acc *entity.Account, err error) {
	ctx, span := c.startSpan(ctx, "CreateAccount")
	defer func() { c.endSpan(span, err) }()

	body := map[string]any{
		"phone_number": phoneNumber,
		"confirmed":    confirmed,
	}

	var payload accountPayload
	if err = c.do(ctx, http.MethodPost, c.baseURL+"/v1/accounts", body, &payload); err != nil {
		return nil, err
	}

	return &entity.Account{
		ID:          payload.ID,
		PhoneNumber: payload.PhoneNumber,
		Confirmed:   payload.Confirmed,
	}, nil
}

func (c *Client) SetCredentialAndAuthenticate(ctx context.Context, accountID, secret string) (sess *entity.Session, err error) {
	ctx, span := c.startSpan(ctx, "SetCredentialAndAuthenticate")
	defer func() { c.endSpan(span, err) }()

	endpoint := c.baseURL + "/v1/accounts/" + url.PathEscape(accountID) + "/credential"
	if err = c.do(ctx, http.MethodPut, endpoint, map[string]any{"secret": secret}, nil); err != nil {
		return nil, fmt.Errorf("set credential: %w", err)
	}

	body := map[string]any{
		"account_id": accountID,
		"secret":     secret,
	}

	var payload sessionPayload
	if err = c.do(ctx, http.MethodPost, c.baseURL+"/v1/sessions", body, &payload); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &entity.Session{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		ExpiresIn:   payload.ExpiresIn,
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}

	assertion, err := c.jwt.Generate(c.clientID)
	if err != nil {
		return fmt.Errorf("client assertion: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+assertion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return goerror.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("identity provider returned %d for %s %s", resp.StatusCode, method, req.URL.Path)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.identity").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
