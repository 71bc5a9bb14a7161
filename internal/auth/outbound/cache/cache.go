package cache

import (
	"context"
	"errors"
	"time"

	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const cooldownKeyPrefix = "otp:cooldown:"

// Cache tracks per-phone issuance cooldowns as expiring tombstones. The
// tombstone's TTL is the remaining wait, so rate-limit reads never need a
// timestamp comparison.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) MarkOTPIssued(ctx context.Context, phoneNumber string, window time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "MarkOTPIssued")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Set(ctx, cooldownKeyPrefix+phoneNumber, 1, window).Err()
	return err
}

func (c *Cache) OTPCooldown(ctx context.Context, phoneNumber string) (wait time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "OTPCooldown")
	defer func() { c.endSpan(span, err) }()

	ttl, err := c.client.PTTL(ctx, cooldownKeyPrefix+phoneNumber).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// PTTL returns negative durations for missing keys and keys without
	// an expiry; neither blocks issuance.
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}
