package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitModified(t *testing.T, w *Watcher) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if w.Modified() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("watcher never reported the change")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	if err := os.WriteFile(path, []byte("#p opt\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if w.Modified() {
		t.Fatal("Modified = true before any change")
	}
	if err := os.WriteFile(path, []byte("#p sp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitModified(t, w)

	select {
	case <-w.Changed():
	case <-time.After(time.Second):
		t.Fatal("no notification on Changed")
	}
}

func TestWatchDetectsRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	// An editor-style atomic replace: write a temp file, rename over the
	// target.
	tmp := filepath.Join(dir, "job.gjf.tmp")
	if err := os.WriteFile(tmp, []byte("b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitModified(t, w)
}

func TestWatchIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.gjf"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if w.Modified() {
		t.Error("a sibling file's change must not flag the watched file")
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitModified(t, w)
	// Let any duplicate events from the same write drain first.
	time.Sleep(100 * time.Millisecond)

	w.Reset()
	if w.Modified() {
		t.Error("Modified = true after Reset")
	}
}

func TestCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
