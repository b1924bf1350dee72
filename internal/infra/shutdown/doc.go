// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// The simulate command registers a final quicksave, the metrics server
// and the store close as hooks; they run in reverse registration order
// on SIGINT/SIGTERM or when the run finishes on its own.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown("store", func(ctx context.Context) error { return store.Close() })
//	err := h.Wait(runCtx)
package shutdown
