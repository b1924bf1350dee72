package command

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/roguesave/internal/telemetry/logger"
	"github.com/yndnr/roguesave/internal/telemetry/metric"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newCaptureLogger(t *testing.T) (logger.Logger, *syncBuffer) {
	t.Helper()
	var out syncBuffer
	l, err := logger.New(logger.Config{Level: "info", Format: "text", Output: &out})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return l, &out
}

func TestServeMetrics_ShutdownIsQuiet(t *testing.T) {
	log, out := newCaptureLogger(t)
	srv, err := serveMetrics("127.0.0.1:0", metric.NewGatherer(), log)
	if err != nil {
		t.Fatalf("serveMetrics: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if strings.Contains(out.String(), "metrics server failed") {
		t.Fatalf("normal shutdown was logged as a failure: %s", out.String())
	}
}

func TestStartMetrics_LogsServeError(t *testing.T) {
	log, out := newCaptureLogger(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ln.Close()

	startMetrics(ln, metric.NewGatherer(), log)
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "metrics server failed") {
		if time.Now().After(deadline) {
			t.Fatalf("serve error was not logged; output: %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
