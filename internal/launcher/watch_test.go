package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherFiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, []string{".py"}, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// Non-matching extension: no trigger.
	writeFile(t, filepath.Join(dir, "notes.txt"))
	select {
	case path := <-w.Reloads():
		t.Fatalf("unexpected reload for %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	// Matching extension: trigger with the changed path.
	writeFile(t, filepath.Join(dir, "dataAPI.py"))
	select {
	case path := <-w.Reloads():
		if !strings.HasSuffix(path, "dataAPI.py") {
			t.Errorf("reload path = %q", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, []string{".py"}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// A burst of writes inside the debounce window collapses into one
	// reload.
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "api.py"))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-w.Reloads():
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered")
	}

	select {
	case <-w.Reloads():
		t.Fatal("burst produced a second reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, []string{".py"}, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	sub := filepath.Join(dir, "api")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(sub, "routes.py"))
	select {
	case path := <-w.Reloads():
		if !strings.HasSuffix(path, "routes.py") {
			t.Errorf("reload path = %q", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not triggered for new subdirectory")
	}
}

func TestWatcherRequiresAWatchableDirectory(t *testing.T) {
	if _, err := NewWatcher([]string{"/does/not/exist"}, nil, time.Millisecond, nil); err == nil {
		t.Fatal("expected error for missing directories")
	}
}
