package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
)

const handshakeSecretBytes = 32

// CredentialHandshake mints a session through the identity collaborator,
// which has no primitive for issuing a session to an identity verified out
// of band. It sets a fresh high-entropy credential on the account and
// immediately authenticates with it. The secret is burned after this single
// use; the next login must go through the OTP flow again, which overwrites
// it before it can ever serve as a password.
type CredentialHandshake struct {
	identity identityProvider
	ins      instrument.Instrumentation
}

func NewCredentialHandshake(identity identityProvider, ins instrument.Instrumentation) *CredentialHandshake {
	return &CredentialHandshake{identity: identity, ins: ins}
}

func (m *CredentialHandshake) Mint(ctx context.Context, phoneNumber string) (*entity.Session, error) {
	ctx, span := m.ins.Tracer("auth.usecase").Start(ctx, "MintSession")
	defer span.End()

	account, err := m.identity.FindAccountByPhone(ctx, phoneNumber)
	if errors.Is(err, goerror.ErrNotFound) {
		account, err = m.identity.CreateAccount(ctx, phoneNumber, true)
		if err != nil {
			return nil, fmt.Errorf("account creation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	secret, err := generateHandshakeSecret()
	if err != nil {
		return nil, fmt.Errorf("handshake secret: %w", err)
	}

	session, err := m.identity.SetCredentialAndAuthenticate(ctx, account.ID, secret)
	if err != nil {
		return nil, fmt.Errorf("credential handshake: %w", err)
	}

	return session, nil
}

func generateHandshakeSecret() (string, error) {
	buf := make([]byte, handshakeSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
