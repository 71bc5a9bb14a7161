package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP in the background and returns a channel that closes
// once a termination signal arrives. main blocks on it and then calls
// Stop with a deadline.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint
		if a.cancel != nil {
			a.cancel()
		}
		close(done)
		slog.Info("application gracefully shutdown")
	}()

	return done
}

// Serve runs the HTTP server on a caller-provided listener. Tests use it
// to bind an ephemeral port.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()
	return errChan
}

// Stop drains the HTTP server, waits for background goroutines (consumers
// and the expiry sweep), then closes resources in registration order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}
	slog.InfoContext(ctx, "all goroutines have finished successfully")

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
