package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Terminal outcomes of Exec for an operation that already ran.
var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the recorded lifecycle of an idempotency key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

// Idempotency guards an operation so it runs at most once per key.
// The notifier keys message sends on the OTP id so broker redeliveries
// do not resend the same code.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker implements Idempotency on redis with SetNX claims.
type StateTracker struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// Option tunes a single Exec call.
type Option func(*execOptions)

// WithLockDuration bounds how long an in_progress claim survives a crash.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL bounds how long a terminal state is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// Acquire claims the key for a new run. StateNone means the caller owns
// the run; any other state reports what a previous run left behind.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fullKey := s.prefix + key

	claimed, err := s.client.SetNX(ctx, fullKey, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateError, err
	}
	if claimed {
		return StateNone, nil
	}

	current, err := s.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		// The key expired between SetNX and Get. One retry settles it.
		claimed, err = s.client.SetNX(ctx, fullKey, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if claimed {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	}
	if err != nil {
		return StateError, err
	}

	switch State(current) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(current), nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateFailed.String(), ttl).Err()
}

// Exec runs fn at most once per key. Repeat calls surface the prior
// outcome as ErrAlready* so consumers can decide whether to ack.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	cfg := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lockDuration <= 0 {
		cfg.lockDuration = defaultLockDuration
	}
	if cfg.stateTTL <= 0 {
		cfg.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, cfg.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if markErr := s.MarkFailed(ctx, key, cfg.stateTTL); markErr != nil {
			return markErr
		}
		return err
	}
	return s.MarkCompleted(ctx, key, cfg.stateTTL)
}
