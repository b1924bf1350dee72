package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook is one step of process teardown.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler runs registered hooks once, newest first, when the process is
// asked to stop. All hooks share a single deadline.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []namedHook

	once sync.Once
	done chan struct{}
}

// NewHandler creates a handler whose hooks must finish within timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{timeout: timeout, done: make(chan struct{})}
}

// OnShutdown registers fn under name. Later registrations run earlier.
func (h *Handler) OnShutdown(name string, fn Hook) {
	h.mu.Lock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
	h.mu.Unlock()
}

// Wait blocks until SIGINT, SIGTERM or the end of ctx, then runs the hooks
// and returns their joined errors.
func (h *Handler) Wait(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
	case <-ctx.Done():
	}
	return h.Run()
}

// Run executes pending hooks now. Each hook runs at most once across calls
// to Run and Wait. Every hook runs even if an earlier one fails.
func (h *Handler) Run() error {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}
	h.once.Do(func() { close(h.done) })
	return errors.Join(errs...)
}

// Done is closed after the first Run completes.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
