package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

// Run listens on the configured address and blocks until ctx ends, a
// termination signal arrives or the server fails. It does not release
// resources; call Stop afterwards.
func (a *App) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "http server listening", "address", l.Addr().String())

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	select {
	case <-sigCtx.Done():
		slog.InfoContext(ctx, "shutdown requested")
		return nil
	case err := <-a.Serve(l):
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Serve runs the HTTP server on l in the background. The channel yields
// the server's exit error once.
func (a *App) Serve(l net.Listener) <-chan error {
	errc := make(chan error, 1)
	go func() {
		errc <- a.httpServer.Serve(l)
		close(errc)
	}()
	return errc
}

// Stop drains HTTP traffic, waits for background consumers and closes
// resources in reverse order of creation.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "http server shutdown", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "background tasks ended with errors", "error", err)
	}

	a.close(ctx)
	slog.InfoContext(ctx, "application stopped")
}

func (a *App) close(ctx context.Context) {
	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "close resource", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
