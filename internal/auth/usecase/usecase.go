package usecase

import (
	"context"
	"time"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/clock"
	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/hash"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/otpcode"
	"github.com/radityaferdi/otpgate/internal/pkg/phone"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxAttempts = 5
	defaultOTPTTL      = 5 * time.Minute
	defaultResendWait  = 15 * time.Second
)

type OTPIssuedEvent struct {
	OTPID            int64
	PhoneNumber      string
	Code             string
	ExpiresInMinutes int64
}

type repoDB interface {
	ReplaceOTP(ctx context.Context, in entity.NewOTP) error
	ConsumeOTPAttempt(ctx context.Context, in entity.OTPAttempt) (*entity.OTPAttemptResult, error)
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

type repoCache interface {
	MarkOTPIssued(ctx context.Context, phoneNumber string, window time.Duration) error
	// OTPCooldown returns the remaining wait before the phone may request
	// another code, zero when no cooldown is active.
	OTPCooldown(ctx context.Context, phoneNumber string) (time.Duration, error)
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

// identityProvider is the external account directory the session minter
// delegates to.
type identityProvider interface {
	FindAccountByPhone(ctx context.Context, phoneNumber string) (*entity.Account, error)
	CreateAccount(ctx context.Context, phoneNumber string, confirmed bool) (*entity.Account, error)
	SetCredentialAndAuthenticate(ctx context.Context, accountID, secret string) (*entity.Session, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	minter        *CredentialHandshake
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	codes         otpcode.Generator
	phones        *phone.Canonicalizer
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Identity      identityProvider
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Codes         otpcode.Generator
	Phones        *phone.Canonicalizer
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		minter:        NewCredentialHandshake(dep.Identity, dep.Instrument),
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		codes:         dep.Codes,
		phones:        dep.Phones,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.auth.otp_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

func (s *Usecase) resendWindow() time.Duration {
	if w := s.cfg.GetSecond("modules.auth.resend_window_seconds"); w > 0 {
		return w
	}
	return defaultResendWait
}

func (s *Usecase) maxAttempts() int16 {
	if m := s.cfg.GetInt32("modules.auth.max_attempts"); m > 0 {
		return int16(m)
	}
	return defaultMaxAttempts
}
