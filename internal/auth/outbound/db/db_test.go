package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radityaferdi/otpgate/internal/auth/entity"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/valueobject"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupDB(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "migrations", "0001_create_auth_otps.sql")),
		postgres.WithDatabase("otpgate"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(nat.Port("5432/tcp")),
		).WithStartupTimeoutDefault(2*time.Minute)),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop())
}

func newOTP(phone, codeHash string, expiresAt time.Time) entity.NewOTP {
	return entity.NewOTP{
		ID:          time.Now().UnixNano(),
		PhoneNumber: phone,
		CodeHash:    codeHash,
		Metadata:    valueobject.JSONMap{"channel": "whatsapp"},
		ExpiresAt:   expiresAt,
	}
}

func TestOTPStore(t *testing.T) {
	store := setupDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("consume without a record", func(t *testing.T) {
		_, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: "+6280000000001",
			CodeHash:    "h",
			MaxAttempts: 5,
			Now:         now,
		})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("ConsumeOTPAttempt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("match consumes the record", func(t *testing.T) {
		phone := "+6280000000002"
		if err := store.ReplaceOTP(ctx, newOTP(phone, "hash-a", now.Add(5*time.Minute))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		res, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-a", MaxAttempts: 5, Now: now,
		})
		if err != nil {
			t.Fatalf("ConsumeOTPAttempt() error = %v", err)
		}
		if res.Outcome != entity.OTPAttemptOutcomeMatched || res.Attempts != 0 {
			t.Fatalf("result = %+v, want a match with untouched attempts", res)
		}

		_, err = store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-a", MaxAttempts: 5, Now: now,
		})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("a matched code must be single use, got %v", err)
		}
	})

	t.Run("mismatches count up and exhaust", func(t *testing.T) {
		phone := "+6280000000003"
		if err := store.ReplaceOTP(ctx, newOTP(phone, "hash-b", now.Add(5*time.Minute))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		for want := int16(1); want <= 3; want++ {
			res, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
				PhoneNumber: phone, CodeHash: "wrong", MaxAttempts: 3, Now: now,
			})
			if err != nil {
				t.Fatalf("ConsumeOTPAttempt() error = %v", err)
			}
			if res.Outcome != entity.OTPAttemptOutcomeMismatched || res.Attempts != want {
				t.Fatalf("attempt %d: result = %+v", want, res)
			}
		}

		// The third mismatch spent the budget and dropped the record, so
		// even the right code is now useless.
		_, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-b", MaxAttempts: 3, Now: now,
		})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("ConsumeOTPAttempt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("expired record is removed on first touch", func(t *testing.T) {
		phone := "+6280000000004"
		if err := store.ReplaceOTP(ctx, newOTP(phone, "hash-c", now.Add(-time.Minute))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		res, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-c", MaxAttempts: 5, Now: now,
		})
		if err != nil {
			t.Fatalf("ConsumeOTPAttempt() error = %v", err)
		}
		if res.Outcome != entity.OTPAttemptOutcomeExpired {
			t.Fatalf("result = %+v, want expired", res)
		}

		_, err = store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-c", MaxAttempts: 5, Now: now,
		})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("ConsumeOTPAttempt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("replace resets the attempt counter", func(t *testing.T) {
		phone := "+6280000000005"
		if err := store.ReplaceOTP(ctx, newOTP(phone, "hash-d", now.Add(5*time.Minute))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		if _, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "wrong", MaxAttempts: 5, Now: now,
		}); err != nil {
			t.Fatalf("ConsumeOTPAttempt() error = %v", err)
		}

		if err := store.ReplaceOTP(ctx, newOTP(phone, "hash-e", now.Add(5*time.Minute))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		res, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-e", MaxAttempts: 5, Now: now,
		})
		if err != nil {
			t.Fatalf("ConsumeOTPAttempt() error = %v", err)
		}
		if res.Outcome != entity.OTPAttemptOutcomeMatched || res.Attempts != 0 {
			t.Fatalf("result = %+v, the old mismatch must not carry over", res)
		}

		// The old code must be gone entirely: only one record per phone.
		if _, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: phone, CodeHash: "hash-d", MaxAttempts: 5, Now: now,
		}); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("ConsumeOTPAttempt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("sweep removes only expired records", func(t *testing.T) {
		expired := "+6280000000006"
		pending := "+6280000000007"
		if err := store.ReplaceOTP(ctx, newOTP(expired, "hash-f", now.Add(-time.Hour))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}
		if err := store.ReplaceOTP(ctx, newOTP(pending, "hash-g", now.Add(time.Hour))); err != nil {
			t.Fatalf("ReplaceOTP() error = %v", err)
		}

		deleted, err := store.DeleteExpiredOTPs(ctx, now)
		if err != nil {
			t.Fatalf("DeleteExpiredOTPs() error = %v", err)
		}
		if deleted < 1 {
			t.Errorf("DeleteExpiredOTPs() = %d, want at least 1", deleted)
		}

		if _, err := store.ConsumeOTPAttempt(ctx, entity.OTPAttempt{
			PhoneNumber: pending, CodeHash: "hash-g", MaxAttempts: 5, Now: now,
		}); err != nil {
			t.Errorf("the pending record must survive the sweep, got %v", err)
		}
	})
}
