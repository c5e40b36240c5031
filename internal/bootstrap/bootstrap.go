// Package bootstrap provides application lifecycle helpers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds the time given to shutdown hooks.
const DefaultShutdownTimeout = 10 * time.Second

// App manages application lifecycle with graceful shutdown support.
type App struct {
	mu      sync.Mutex
	hooks   []func(ctx context.Context) error
	timeout time.Duration
	done    bool
}

// New creates a new App. A non-positive timeout uses DefaultShutdownTimeout.
func New(shutdownTimeout time.Duration) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &App{timeout: shutdownTimeout}
}

// AddShutdownHook registers a function to call during graceful shutdown.
// Hooks run in reverse order (LIFO). Thread-safe.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run executes run until it returns or the process receives SIGINT or SIGTERM.
// Shutdown hooks are called exactly once in both cases, and their errors are
// joined with the error of run.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case err := <-errCh:
		return errors.Join(err, a.shutdown())
	case <-ctx.Done():
		slog.Default().Info("shutting down", "cause", context.Cause(ctx))
		shutdownErr := a.shutdown()

		var runErr error
		select {
		case runErr = <-errCh:
		case <-time.After(a.timeout):
			runErr = fmt.Errorf("run did not return within %s after shutdown", a.timeout)
		}
		return errors.Join(runErr, shutdownErr)
	}
}

func (a *App) shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return nil
	}
	a.done = true

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		if err := a.hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
