package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
)

func newTestGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGateway(Config{
		BaseURL:    srv.URL,
		Token:      "gw-token",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}, instrument.NewNoop())
}

func TestSendMessage(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gw-token" {
			t.Errorf("Authorization = %q", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["to"] != "+6281234567890" || body["body"] == "" {
			t.Errorf("body = %v", body)
		}

		w.WriteHeader(http.StatusAccepted)
	}))

	if err := gw.SendMessage(context.Background(), "+6281234567890", "Your verification code is 123456."); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("gateway called %d times, want 1", n)
	}
}

func TestSendMessageRetriesServerErrors(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := gw.SendMessage(context.Background(), "+6281234567890", "code"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("gateway called %d times, want 2", n)
	}
}

func TestSendMessageRetriesThrottling(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := gw.SendMessage(context.Background(), "+6281234567890", "code"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("gateway called %d times, want 2", n)
	}
}

func TestSendMessageDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	if err := gw.SendMessage(context.Background(), "+6281234567890", "code"); err == nil {
		t.Fatal("SendMessage() expected an error for a 400 response")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("gateway called %d times, want 1 (no retry on 4xx)", n)
	}
}

func TestSendMessageGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if err := gw.SendMessage(context.Background(), "+6281234567890", "code"); err == nil {
		t.Fatal("SendMessage() expected an error after exhausting retries")
	}
	// Initial attempt plus two retries.
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("gateway called %d times, want 3", n)
	}
}
