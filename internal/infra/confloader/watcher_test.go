package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func startWatcher(t *testing.T, file string) (*Watcher, chan string) {
	t.Helper()
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	if err := w.Watch(file); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changed := make(chan string, 10)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	w.StartAsync()
	time.Sleep(100 * time.Millisecond)
	return w, changed
}

func TestWatcher_FileChange(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "roguesave.yaml")
	if err := os.WriteFile(configFile, []byte("save:\n  compress: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, changed := startWatcher(t, configFile)

	if err := os.WriteFile(configFile, []byte("save:\n  compress: false\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	select {
	case path := <-changed:
		if filepath.Clean(path) != configFile {
			t.Errorf("callback path = %q, want %q", path, configFile)
		}
	case <-time.After(2 * time.Second):
		t.Error("OnChange() callback was not triggered within timeout")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "roguesave.yaml")
	if err := os.WriteFile(configFile, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, changed := startWatcher(t, configFile)

	if err := os.WriteFile(filepath.Join(dir, "save_slot_0.sav"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	select {
	case path := <-changed:
		t.Errorf("callback fired for unwatched file %q", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "roguesave.yaml")
	if err := os.WriteFile(configFile, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	w, err := NewWatcher(WithDebounce(300 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()
	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	var mu sync.Mutex
	calls := 0
	w.OnChange(func(string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	w.StartAsync()
	time.Sleep(100 * time.Millisecond)

	for _, level := range []string{"debug", "warn", "error"} {
		if err := os.WriteFile(configFile, []byte("log:\n  level: "+level+"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(time.Second)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()
	if err := w.Watch("/nonexistent/dir/roguesave.yaml"); err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_ConcurrentCallbacks(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	count := 0
	w.OnChange(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notify("roguesave.yaml")
		}()
	}
	wg.Wait()
	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}
