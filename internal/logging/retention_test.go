package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogsRemovesExpiredMatches(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "slib-20250101T000000.log")
	fresh := filepath.Join(dir, "slib-20261001T000000.log")
	pointer := filepath.Join(dir, "slib-current.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, fresh, pointer, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().Add(-72 * time.Hour)
	for _, path := range []string{old, pointer, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := CleanupOldLogs(NewNop(), 2, RetentionTarget{Dir: dir, Pattern: "slib-*.log", Exclude: []string{pointer}})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err %v", old, err)
	}
	for _, path := range []string{fresh, pointer, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slib-old.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if removed := CleanupOldLogs(nil, 0, RetentionTarget{Dir: dir}); removed != 0 {
		t.Fatalf("removed = %d with retention disabled", removed)
	}
}
