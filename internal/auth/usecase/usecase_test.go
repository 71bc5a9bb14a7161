package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/hash"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/otpcode"
	"github.com/radityaferdi/otpgate/internal/pkg/phone"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
)

const testConfigYAML = `
modules:
  auth:
    otp_ttl_minutes: 5
    resend_window_seconds: 60
    max_attempts: 5
`

var testNow = time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

type fakeRepoDB struct {
	replaceFn func(ctx context.Context, in entity.NewOTP) error
	consumeFn func(ctx context.Context, in entity.OTPAttempt) (*entity.OTPAttemptResult, error)
	sweepFn   func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeRepoDB) ReplaceOTP(ctx context.Context, in entity.NewOTP) error {
	if f.replaceFn == nil {
		return nil
	}
	return f.replaceFn(ctx, in)
}

func (f *fakeRepoDB) ConsumeOTPAttempt(ctx context.Context, in entity.OTPAttempt) (*entity.OTPAttemptResult, error) {
	if f.consumeFn == nil {
		return &entity.OTPAttemptResult{Outcome: entity.OTPAttemptOutcomeMatched}, nil
	}
	return f.consumeFn(ctx, in)
}

func (f *fakeRepoDB) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	if f.sweepFn == nil {
		return 0, nil
	}
	return f.sweepFn(ctx, now)
}

type fakeRepoCache struct {
	markFn     func(ctx context.Context, phoneNumber string, window time.Duration) error
	cooldownFn func(ctx context.Context, phoneNumber string) (time.Duration, error)
}

func (f *fakeRepoCache) MarkOTPIssued(ctx context.Context, phoneNumber string, window time.Duration) error {
	if f.markFn == nil {
		return nil
	}
	return f.markFn(ctx, phoneNumber, window)
}

func (f *fakeRepoCache) OTPCooldown(ctx context.Context, phoneNumber string) (time.Duration, error) {
	if f.cooldownFn == nil {
		return 0, nil
	}
	return f.cooldownFn(ctx, phoneNumber)
}

type fakeRepoMessaging struct {
	publishFn func(ctx context.Context, msg OTPIssuedEvent) error
}

func (f *fakeRepoMessaging) PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error {
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, msg)
}

type fakeIdentity struct {
	findFn   func(ctx context.Context, phoneNumber string) (*entity.Account, error)
	createFn func(ctx context.Context, phoneNumber string, confirmed bool) (*entity.Account, error)
	authFn   func(ctx context.Context, accountID, secret string) (*entity.Session, error)
}

func (f *fakeIdentity) FindAccountByPhone(ctx context.Context, phoneNumber string) (*entity.Account, error) {
	if f.findFn == nil {
		return &entity.Account{ID: "acc-1", PhoneNumber: phoneNumber, Confirmed: true}, nil
	}
	return f.findFn(ctx, phoneNumber)
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, phoneNumber string, confirmed bool) (*entity.Account, error) {
	if f.createFn == nil {
		return &entity.Account{ID: "acc-new", PhoneNumber: phoneNumber, Confirmed: confirmed}, nil
	}
	return f.createFn(ctx, phoneNumber, confirmed)
}

func (f *fakeIdentity) SetCredentialAndAuthenticate(ctx context.Context, accountID, secret string) (*entity.Session, error) {
	if f.authFn == nil {
		return &entity.Session{AccessToken: "token", TokenType: "Bearer", ExpiresIn: 3600}, nil
	}
	return f.authFn(ctx, accountID, secret)
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeNumberID struct{ id int64 }

func (g fakeNumberID) Generate() int64 { return g.id }

type fakeCodes struct {
	code string
	err  error
}

func (g fakeCodes) Generate() (string, error) { return g.code, g.err }

type testFixture struct {
	uc        *Usecase
	repoDB    *fakeRepoDB
	repoCache *fakeRepoCache
	repoMQ    *fakeRepoMessaging
	identity  *fakeIdentity
	hmac      *hash.HMACSHA256
	codes     *fakeCodes
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("config.NewViperFromBytes() error = %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator.NewV10Validator() error = %v", err)
	}

	phones, err := phone.NewCanonicalizer(map[string]string{"+62": "11"})
	if err != nil {
		t.Fatalf("phone.NewCanonicalizer() error = %v", err)
	}

	f := &testFixture{
		repoDB:    &fakeRepoDB{},
		repoCache: &fakeRepoCache{},
		repoMQ:    &fakeRepoMessaging{},
		identity:  &fakeIdentity{},
		hmac:      hash.NewHMACSHA256("test-secret"),
		codes:     &fakeCodes{code: "123456"},
	}

	f.uc = New(Dependency{
		RepoDB:        f.repoDB,
		RepoCache:     f.repoCache,
		RepoMessaging: f.repoMQ,
		Identity:      f.identity,
		Validator:     v,
		Config:        cfg,
		HMAC:          f.hmac,
		Codes:         f.codes,
		Phones:        phones,
		UID:           fakeNumberID{id: 101},
		Clock:         fakeClock{now: testNow},
		Instrument:    instrument.NewNoop(),
	})

	return f
}

var _ otpcode.Generator = fakeCodes{}

func TestConfigDefaultsApplyWhenUnset(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("{}"))
	if err != nil {
		t.Fatalf("config.NewViperFromBytes() error = %v", err)
	}

	uc := New(Dependency{Config: cfg, Instrument: instrument.NewNoop()})

	if got := uc.resendWindow(); got != 15*time.Second {
		t.Errorf("resendWindow() = %v, want %v", got, 15*time.Second)
	}
	if got := uc.otpTTL(); got != 5*time.Minute {
		t.Errorf("otpTTL() = %v, want %v", got, 5*time.Minute)
	}
	if got := uc.maxAttempts(); got != int16(5) {
		t.Errorf("maxAttempts() = %d, want 5", got)
	}
}
