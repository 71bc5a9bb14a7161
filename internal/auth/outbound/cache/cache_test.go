package cache

import (
	"context"
	"testing"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("could not start redis container: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	opt, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("redis.ParseURL() error = %v", err)
	}

	client := goredis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, instrument.NewNoop())
}

func TestOTPCooldown(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	t.Run("no cooldown for an unknown phone", func(t *testing.T) {
		wait, err := cache.OTPCooldown(ctx, "+6280000000001")
		if err != nil {
			t.Fatalf("OTPCooldown() error = %v", err)
		}
		if wait != 0 {
			t.Errorf("OTPCooldown() = %v, want 0", wait)
		}
	})

	t.Run("marked phone reports the remaining wait", func(t *testing.T) {
		phone := "+6280000000002"
		if err := cache.MarkOTPIssued(ctx, phone, 30*time.Second); err != nil {
			t.Fatalf("MarkOTPIssued() error = %v", err)
		}

		wait, err := cache.OTPCooldown(ctx, phone)
		if err != nil {
			t.Fatalf("OTPCooldown() error = %v", err)
		}
		if wait <= 0 || wait > 30*time.Second {
			t.Errorf("OTPCooldown() = %v, want a value in (0, 30s]", wait)
		}
	})

	t.Run("cooldown clears after the window", func(t *testing.T) {
		phone := "+6280000000003"
		if err := cache.MarkOTPIssued(ctx, phone, 100*time.Millisecond); err != nil {
			t.Fatalf("MarkOTPIssued() error = %v", err)
		}

		time.Sleep(200 * time.Millisecond)

		wait, err := cache.OTPCooldown(ctx, phone)
		if err != nil {
			t.Fatalf("OTPCooldown() error = %v", err)
		}
		if wait != 0 {
			t.Errorf("OTPCooldown() = %v, want 0 after expiry", wait)
		}
	})

	t.Run("a fresh issue restarts the window", func(t *testing.T) {
		phone := "+6280000000004"
		if err := cache.MarkOTPIssued(ctx, phone, time.Second); err != nil {
			t.Fatalf("MarkOTPIssued() error = %v", err)
		}
		if err := cache.MarkOTPIssued(ctx, phone, time.Minute); err != nil {
			t.Fatalf("MarkOTPIssued() error = %v", err)
		}

		wait, err := cache.OTPCooldown(ctx, phone)
		if err != nil {
			t.Fatalf("OTPCooldown() error = %v", err)
		}
		if wait <= time.Second {
			t.Errorf("OTPCooldown() = %v, want the widened window", wait)
		}
	})
}
