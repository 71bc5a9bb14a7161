package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/radityaferdi/otpgate/internal/pkg/stacktrace"
)

// callHandlerWithRecover shields a broker's dispatch loop from handler
// panics; the panicking message surfaces as an error so the driver can
// nack it instead of killing the consumer.
func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("pkgmessage: panic in %s handler: %v", kind, rvr)
	}()

	return fn()
}
