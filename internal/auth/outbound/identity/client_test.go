package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/clock"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/jwt"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *jwt.Symmetric) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "otpgate",
		Audiences: []string{"identity-provider"},
		TTL:       time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt.NewHS512() error = %v", err)
	}

	c := NewClient(Config{
		BaseURL:  srv.URL,
		ClientID: "otpgate",
		Timeout:  2 * time.Second,
	}, signer, instrument.NewNoop())

	return c, signer
}

func TestFindAccountByPhone(t *testing.T) {
	var seenAssertion string
	c, signer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/accounts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("phone_number"); got != "+6281234567890" {
			t.Errorf("phone_number query = %q", got)
		}
		seenAssertion = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "acc-7",
			"phone_number": "+6281234567890",
			"confirmed":    true,
		})
	}))

	acc, err := c.FindAccountByPhone(context.Background(), "+6281234567890")
	if err != nil {
		t.Fatalf("FindAccountByPhone() error = %v", err)
	}
	if acc.ID != "acc-7" || !acc.Confirmed {
		t.Errorf("account = %+v", acc)
	}

	claims, err := signer.Verify(seenAssertion)
	if err != nil {
		t.Fatalf("the request did not carry a valid client assertion: %v", err)
	}
	if claims.Subject != "otpgate" {
		t.Errorf("assertion subject = %q, want the client ID", claims.Subject)
	}
}

func TestFindAccountByPhoneNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FindAccountByPhone(context.Background(), "+6281234567890")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("FindAccountByPhone() error = %v, want ErrNotFound", err)
	}
}

func TestCreateAccount(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/accounts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["phone_number"] != "+6281234567890" || body["confirmed"] != true {
			t.Errorf("body = %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "acc-new",
			"phone_number": "+6281234567890",
			"confirmed":    true,
		})
	}))

	acc, err := c.CreateAccount(context.Background(), "+6281234567890", true)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if acc.ID != "acc-new" {
		t.Errorf("account = %+v", acc)
	}
}

func TestSetCredentialAndAuthenticate(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/v1/accounts/acc-7/credential":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["secret"] != "one-time-secret" {
				t.Errorf("credential body = %v", body)
			}
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["account_id"] != "acc-7" || body["secret"] != "one-time-secret" {
				t.Errorf("session body = %v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "jwt-token",
				"token_type":   "Bearer",
				"expires_in":   900,
			})

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	sess, err := c.SetCredentialAndAuthenticate(context.Background(), "acc-7", "one-time-secret")
	if err != nil {
		t.Fatalf("SetCredentialAndAuthenticate() error = %v", err)
	}
	if sess.AccessToken != "jwt-token" || sess.ExpiresIn != 900 {
		t.Errorf("session = %+v", sess)
	}

	want := []string{"PUT /v1/accounts/acc-7/credential", "POST /v1/sessions"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSetCredentialFailureStopsHandshake(t *testing.T) {
	sessions := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			sessions++
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.SetCredentialAndAuthenticate(context.Background(), "acc-7", "one-time-secret")
	if err == nil || !strings.Contains(err.Error(), "set credential:") {
		t.Fatalf("SetCredentialAndAuthenticate() error = %v, want a set credential failure", err)
	}
	if sessions != 0 {
		t.Error("no session must be requested when the credential was not set")
	}
}
