// Package goroutine runs bounded background work for the service: broker
// consumers, outbox relays and fire-and-forget event publishing.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shandysiswandi/mindjournal/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is the per-CPU limit used when NewManager receives a
// non-positive value.
const DefaultMaxGoroutine int = 100

// Manager schedules tasks on an errgroup with a fixed limit. A task that
// does not fit is dropped rather than queued, so callers never block.
type Manager struct {
	group *errgroup.Group

	errMu sync.Mutex
	errs  []error

	state  sync.RWMutex
	closed bool
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}

	group := new(errgroup.Group)
	group.SetLimit(limit)

	return &Manager{group: group}
}

// Go starts task unless the manager is closed or saturated.
func (m *Manager) Go(ctx context.Context, task func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.state.RLock()
	defer m.state.RUnlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, task skipped")
		return
	}

	started := m.group.TryGo(func() error {
		m.run(ctx, task)
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "goroutine limit reached, task dropped")
	}
}

func (m *Manager) run(ctx context.Context, task func(ctx context.Context) error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "background task panicked", "panic", rvr, "stack", paths)
			return
		}
		slog.ErrorContext(ctx, "background task panicked", "panic", rvr, "stack", string(stack))
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "background task not started", "because", err)
		return
	}

	if err := task(ctx); err != nil {
		slog.WarnContext(ctx, "background task failed", "error", err)
		m.errMu.Lock()
		m.errs = append(m.errs, err)
		m.errMu.Unlock()
	}
}

// Wait closes the manager, blocks until running tasks return and joins
// their errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.state.Lock()
	m.closed = true
	m.state.Unlock()

	_ = m.group.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()

	return errors.Join(m.errs...)
}
