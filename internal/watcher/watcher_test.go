package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type callbackRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *callbackRecorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *callbackRecorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if p == path {
			n++
		}
	}
	return n
}

func TestWatcher_FileCreateTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	rec := &callbackRecorder{}

	w := New([]string{dir}, rec.record, nil, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if rec.count(path) < 1 {
		t.Errorf("expected a callback for %s", path)
	}
}

func TestWatcher_DebounceCollapsesWriteBurst(t *testing.T) {
	dir := t.TempDir()
	rec := &callbackRecorder{}

	w := New([]string{dir}, rec.record, nil, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "burst.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("rev"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if got := rec.count(path); got != 1 {
		t.Errorf("callback fired %d times for a write burst, want 1", got)
	}
}

func TestWatcher_HiddenFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	rec := &callbackRecorder{}

	w := New([]string{dir}, rec.record, nil, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	hidden := filepath.Join(dir, ".hidden.txt")
	if err := os.WriteFile(hidden, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if rec.count(hidden) != 0 {
		t.Errorf("hidden file should not trigger callbacks")
	}
}

func TestWatcher_NewSubdirectoryWatched(t *testing.T) {
	dir := t.TempDir()
	rec := &callbackRecorder{}

	w := New([]string{dir}, rec.record, nil, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "inner.txt")
	if err := os.WriteFile(path, []byte("deep"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if rec.count(path) < 1 {
		t.Errorf("expected a callback for file in new subdirectory")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, func(string) {}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestSkipDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".cache", true},
		{"Tool.app", true},
		{"documents", false},
		{"app", false},
	}
	for _, tt := range tests {
		if got := skipDir(tt.name); got != tt.want {
			t.Errorf("skipDir(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
