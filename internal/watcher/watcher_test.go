package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) FileChanged(path string) {
	r.mu.Lock()
	r.changed = append(r.changed, path)
	r.mu.Unlock()
}

func (r *recorder) FileRemoved(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() (changed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...), append([]string(nil), r.removed...)
}

func countSuffix(paths []string, suffix string) int {
	n := 0
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, root string, rec *recorder, opts ...Option) *Watcher {
	t.Helper()
	w := New(root, []string{".jpg", ".png"}, rec, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec, WithDebounce(150*time.Millisecond))

	p := filepath.Join(dir, "cat.jpg")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(p, []byte(strings.Repeat("x", i+1)), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		changed, _ := rec.snapshot()
		return countSuffix(changed, "cat.jpg") >= 1
	})
	if !ok {
		t.Fatal("expected a change callback for cat.jpg")
	}
	time.Sleep(300 * time.Millisecond)
	changed, _ := rec.snapshot()
	if n := countSuffix(changed, "cat.jpg"); n != 1 {
		t.Errorf("burst of writes produced %d callbacks, want 1", n)
	}
	if countSuffix(changed, "notes.txt") != 0 {
		t.Error("non-image file should be filtered")
	}
}

func TestWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "gone.png")
	if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatcher(t, dir, rec)

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, 2*time.Second, func() bool {
		_, removed := rec.snapshot()
		return countSuffix(removed, "gone.png") == 1
	})
	if !ok {
		t.Error("expected a remove callback for gone.png")
	}
}

func TestWatcher_NewDirectoryIsWatchedAndSynced(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec, WithDebounce(50*time.Millisecond))

	nested := filepath.Join(dir, "album", "2024")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.png"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, 2*time.Second, func() bool {
		changed, _ := rec.snapshot()
		return countSuffix(changed, "deep.png") >= 1
	})
	if !ok {
		changed, _ := rec.snapshot()
		t.Errorf("expected deep.png to be reported, got %v", changed)
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.jpg", "sub/b.png", "skip.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := startWatcher(t, dir, rec)
	w.SyncExistingFiles()
	changed, _ := rec.snapshot()
	if len(changed) != 2 || countSuffix(changed, "a.jpg") != 1 || countSuffix(changed, "b.png") != 1 {
		t.Errorf("SyncExistingFiles reported %v", changed)
	}

	flatRec := &recorder{}
	flat := New(dir, []string{".jpg", ".png"}, flatRec, WithRecursive(false))
	flat.SyncExistingFiles()
	changed, _ = flatRec.snapshot()
	if len(changed) != 1 || countSuffix(changed, "a.jpg") != 1 {
		t.Errorf("non-recursive sync reported %v", changed)
	}
}

func TestWatcher_StartCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	w := New(root, nil, HandlerFuncs{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if w.Root() != root {
		t.Errorf("Root() = %q", w.Root())
	}
	w.Stop()
	w.Stop()
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.jpg", []string{".jpg"}, true},
		{"/a/b.JPG", []string{"jpg"}, true},
		{"/a/b.png", []string{".jpg"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{".jpg"}, false},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.jpg", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestHandlerFuncs_NilSafe(t *testing.T) {
	var h HandlerFuncs
	h.FileChanged("x")
	h.FileRemoved("x")
	called := ""
	h = HandlerFuncs{Removed: func(p string) { called = p }}
	h.FileRemoved("y")
	if called != "y" {
		t.Errorf("Removed not called, got %q", called)
	}
}
