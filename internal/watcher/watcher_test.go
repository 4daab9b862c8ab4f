package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func matchYAML(path string) bool {
	return strings.HasSuffix(path, ".types.yaml")
}

func TestWatcher_BuildSnapshot(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "pets.types.yaml"), []byte("package: pets"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an input"), 0o644)

	w := New([]string{dir}, matchYAML, 100*time.Millisecond, nil)
	snap := w.buildSnapshot()

	if len(snap) != 1 {
		t.Fatalf("expected 1 file in snapshot, got %d", len(snap))
	}
	want := filepath.Join(dir, "pets.types.yaml")
	if _, ok := snap[want]; !ok {
		t.Fatalf("expected %s in snapshot", want)
	}
}

func TestWatcher_BuildSnapshot_SubDirs(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "api")
	os.MkdirAll(subDir, 0o755)
	os.WriteFile(filepath.Join(dir, "root.types.yaml"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(subDir, "nested.types.yaml"), []byte("b"), 0o644)
	os.WriteFile(filepath.Join(subDir, "readme.md"), []byte("c"), 0o644)

	w := New([]string{dir}, matchYAML, 100*time.Millisecond, nil)
	snap := w.buildSnapshot()

	if len(snap) != 2 {
		t.Fatalf("expected 2 files in snapshot, got %d", len(snap))
	}
}

func TestWatcher_BuildSnapshot_NilMatch(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "anything.txt"), []byte("x"), 0o644)

	w := New([]string{dir}, nil, 100*time.Millisecond, nil)
	if snap := w.buildSnapshot(); len(snap) != 1 {
		t.Fatalf("nil match should accept every file, got %d", len(snap))
	}
}

func TestWatcher_Diff_Create(t *testing.T) {
	w := &Watcher{}
	old := map[string]fileInfo{}
	new := map[string]fileInfo{
		"/a.types.yaml": {modTime: time.Now(), size: 10},
	}
	events := w.diff(old, new)
	if len(events) != 1 || events[0].Op != "create" {
		t.Errorf("expected 1 create event, got %v", events)
	}
}

func TestWatcher_Diff_Write(t *testing.T) {
	w := &Watcher{}
	now := time.Now()
	old := map[string]fileInfo{"/a.types.yaml": {modTime: now, size: 10}}
	new := map[string]fileInfo{"/a.types.yaml": {modTime: now.Add(time.Second), size: 15}}
	events := w.diff(old, new)
	if len(events) != 1 || events[0].Op != "write" {
		t.Errorf("expected 1 write event, got %v", events)
	}
}

func TestWatcher_Diff_Remove(t *testing.T) {
	w := &Watcher{}
	old := map[string]fileInfo{"/a.types.yaml": {modTime: time.Now(), size: 10}}
	new := map[string]fileInfo{}
	events := w.diff(old, new)
	if len(events) != 1 || events[0].Op != "remove" {
		t.Errorf("expected 1 remove event, got %v", events)
	}
}

func TestWatcher_Diff_NoChange(t *testing.T) {
	w := &Watcher{}
	now := time.Now()
	snap := map[string]fileInfo{"/a.types.yaml": {modTime: now, size: 10}}
	events := w.diff(snap, snap)
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %v", events)
	}
}

func TestWatcher_Diff_MultipleEvents(t *testing.T) {
	w := &Watcher{}
	now := time.Now()
	old := map[string]fileInfo{
		"/a.types.yaml": {modTime: now, size: 10},
		"/b.types.yaml": {modTime: now, size: 20},
	}
	new := map[string]fileInfo{
		"/a.types.yaml": {modTime: now.Add(time.Second), size: 15}, // modified
		"/c.types.yaml": {modTime: now, size: 30},                  // created
		// /b.types.yaml removed
	}
	events := w.diff(old, new)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(events), events)
	}

	ops := make(map[string]bool)
	for _, e := range events {
		ops[e.Op] = true
	}
	if !ops["write"] || !ops["create"] || !ops["remove"] {
		t.Errorf("expected write, create, and remove events, got %v", events)
	}
}

func TestWatcher_StopUnblocksWatch(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir}, matchYAML, 10*time.Millisecond, func([]Event) {})
	w.SetPollInterval(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Watch() }()

	time.Sleep(30 * time.Millisecond)
	w.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after Stop")
	}
}
