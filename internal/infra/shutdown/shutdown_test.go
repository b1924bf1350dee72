package shutdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestHandler_Wait_Signal(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(fmt.Sprintf("hook-%d", i), func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("hooks called in order %v, want [3 2 1]", order)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_Context(t *testing.T) {
	h := NewHandler(time.Second)
	called := false
	h.OnShutdown("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context has no deadline")
		}
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !called {
		t.Error("hook not called after context cancellation")
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := NewHandler(time.Second)
	errA, errB := errors.New("close store"), errors.New("final save")
	ran := 0
	h.OnShutdown("store", func(context.Context) error { ran++; return errA })
	h.OnShutdown("metrics", func(context.Context) error { ran++; return nil })
	h.OnShutdown("quicksave", func(context.Context) error { ran++; return errB })

	err := h.Run()
	if ran != 3 {
		t.Errorf("ran %d hooks, want 3", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Run() = %v, want both hook errors", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "store: close store") || !strings.Contains(msg, "quicksave: final save") {
		t.Errorf("Run() = %q, want hook names in the message", msg)
	}

	// Hooks run once.
	if err := h.Run(); err != nil || ran != 3 {
		t.Errorf("second Run() = %v, ran = %d", err, ran)
	}
}
