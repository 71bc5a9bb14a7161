package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
)

func TestMintUsesExistingAccount(t *testing.T) {
	identity := &fakeIdentity{}
	identity.findFn = func(_ context.Context, phoneNumber string) (*entity.Account, error) {
		return &entity.Account{ID: "acc-7", PhoneNumber: phoneNumber, Confirmed: true}, nil
	}

	created := false
	identity.createFn = func(context.Context, string, bool) (*entity.Account, error) {
		created = true
		return nil, errors.New("unexpected create")
	}

	var handshake struct {
		accountID string
		secret    string
	}
	identity.authFn = func(_ context.Context, accountID, secret string) (*entity.Session, error) {
		handshake.accountID = accountID
		handshake.secret = secret
		return &entity.Session{AccessToken: "token"}, nil
	}

	m := NewCredentialHandshake(identity, instrument.NewNoop())

	session, err := m.Mint(context.Background(), "+6281234567890")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if session.AccessToken != "token" {
		t.Errorf("AccessToken = %q", session.AccessToken)
	}
	if created {
		t.Error("an existing account must not be recreated")
	}
	if handshake.accountID != "acc-7" {
		t.Errorf("handshake account = %q, want acc-7", handshake.accountID)
	}

	raw, err := base64.RawURLEncoding.DecodeString(handshake.secret)
	if err != nil {
		t.Fatalf("handshake secret %q is not base64url: %v", handshake.secret, err)
	}
	if len(raw) != handshakeSecretBytes {
		t.Errorf("handshake secret carries %d bytes, want %d", len(raw), handshakeSecretBytes)
	}
}

func TestMintCreatesMissingAccountAsConfirmed(t *testing.T) {
	identity := &fakeIdentity{}
	identity.findFn = func(context.Context, string) (*entity.Account, error) {
		return nil, goerror.ErrNotFound
	}

	var created struct {
		phone     string
		confirmed bool
	}
	identity.createFn = func(_ context.Context, phoneNumber string, confirmed bool) (*entity.Account, error) {
		created.phone = phoneNumber
		created.confirmed = confirmed
		return &entity.Account{ID: "acc-new", PhoneNumber: phoneNumber, Confirmed: confirmed}, nil
	}

	var handshakeAccount string
	identity.authFn = func(_ context.Context, accountID, _ string) (*entity.Session, error) {
		handshakeAccount = accountID
		return &entity.Session{AccessToken: "token"}, nil
	}

	m := NewCredentialHandshake(identity, instrument.NewNoop())

	if _, err := m.Mint(context.Background(), "+6281234567890"); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if created.phone != "+6281234567890" {
		t.Errorf("created phone = %q", created.phone)
	}
	// The phone is already verified by the matched code.
	if !created.confirmed {
		t.Error("the provisioned account must be confirmed")
	}
	if handshakeAccount != "acc-new" {
		t.Errorf("handshake account = %q, want acc-new", handshakeAccount)
	}
}

func TestMintSecretsAreSingleUse(t *testing.T) {
	identity := &fakeIdentity{}

	var secrets []string
	identity.authFn = func(_ context.Context, _, secret string) (*entity.Session, error) {
		secrets = append(secrets, secret)
		return &entity.Session{AccessToken: "token"}, nil
	}

	m := NewCredentialHandshake(identity, instrument.NewNoop())
	for range 2 {
		if _, err := m.Mint(context.Background(), "+6281234567890"); err != nil {
			t.Fatalf("Mint() error = %v", err)
		}
	}

	if len(secrets) != 2 || secrets[0] == secrets[1] {
		t.Errorf("consecutive handshakes reused a secret: %v", secrets)
	}
}

func TestMintErrorContexts(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(identity *fakeIdentity)
		wantCtx string
	}{
		{
			name: "lookup failure",
			setup: func(identity *fakeIdentity) {
				identity.findFn = func(context.Context, string) (*entity.Account, error) {
					return nil, errors.New("timeout")
				}
			},
			wantCtx: "account lookup:",
		},
		{
			name: "creation failure",
			setup: func(identity *fakeIdentity) {
				identity.findFn = func(context.Context, string) (*entity.Account, error) {
					return nil, goerror.ErrNotFound
				}
				identity.createFn = func(context.Context, string, bool) (*entity.Account, error) {
					return nil, errors.New("conflict")
				}
			},
			wantCtx: "account creation:",
		},
		{
			name: "handshake failure",
			setup: func(identity *fakeIdentity) {
				identity.authFn = func(context.Context, string, string) (*entity.Session, error) {
					return nil, errors.New("rejected")
				}
			},
			wantCtx: "credential handshake:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := &fakeIdentity{}
			tt.setup(identity)

			m := NewCredentialHandshake(identity, instrument.NewNoop())
			_, err := m.Mint(context.Background(), "+6281234567890")
			if err == nil {
				t.Fatal("Mint() expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantCtx) {
				t.Errorf("Mint() error = %v, want %q context", err, tt.wantCtx)
			}
		})
	}
}
