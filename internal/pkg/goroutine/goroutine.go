package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/radityaferdi/otpgate/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine scales the fallback concurrency limit per CPU when
// NewManager receives a non-positive value.
const DefaultMaxGoroutine int = 100

// Manager bounds and tracks background goroutines. The app hands every
// long-lived worker (message consumers, the OTP expiry sweep) to one
// Manager so shutdown can wait for all of them.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      *sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager returns a Manager that runs at most maxGoroutine tasks at
// once.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{
		wg:   &sync.WaitGroup{},
		sema: make(chan struct{}, maxGoroutine),
	}
}

// Go runs f on a new goroutine when a slot is free. At the limit, or
// after Wait has been called, the task is dropped with a warning rather
// than queued.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Go(func() {
			g.stateMu.RUnlock()
			defer func() {
				<-g.sema

				if rvr := recover(); rvr != nil {
					stack := debug.Stack()
					if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", paths)
					} else {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "stack", string(stack))
					}
				}
			}()

			select {
			case <-pCtx.Done():
				slog.WarnContext(pCtx, "goroutine canceled", "because", pCtx.Err())
			default:
				if err := f(pCtx); err != nil {
					g.mu.Lock()
					g.errs = append(g.errs, err)
					g.mu.Unlock()
				}
			}
		})
	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "Maximum goroutine limit reached, failed to start new goroutine")
	}
}

// Wait closes the manager to new tasks, blocks until running ones finish,
// and joins every error they returned.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()
	return errors.Join(g.errs...)
}
