package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTryLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fetch.lock")

	fl, err := TryLock(path, "data.fetch")
	if err != nil {
		t.Fatalf("TryLock() failed: %v", err)
	}
	if fl.Path() != path {
		t.Errorf("Path() = %s, want %s", fl.Path(), path)
	}

	_, err = TryLock(path, "other")
	if !IsHeld(err) {
		t.Fatalf("second TryLock() should fail while the lock is held, got %v", err)
	}
	var held *HeldError
	if errors.As(err, &held) {
		if held.PID != os.Getpid() || held.Owner != "data.fetch" || held.Since.IsZero() {
			t.Errorf("unexpected holder %+v", held)
		}
	}
	if !strings.Contains(err.Error(), "lock held by process") {
		t.Errorf("unexpected error: %v", err)
	}

	fl.Unlock()
	fl.Unlock()

	again, err := TryLock(path, "data.fetch")
	if err != nil {
		t.Fatalf("TryLock() after Unlock failed: %v", err)
	}
	again.Unlock()
}

func TestCleanupTempFiles(t *testing.T) {
	dataDir := t.TempDir()
	cacheDir := t.TempDir()
	files := map[string]bool{
		filepath.Join(dataDir, "boston_daily.csv.tmp"):         true,
		filepath.Join(dataDir, "boston_daily.csv"):             false,
		filepath.Join(cacheDir, "responses", "index.json.tmp"): true,
		filepath.Join(cacheDir, "responses", "1.sz"):           false,
	}
	for path := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cleaned, err := CleanupTempFiles(dataDir, cacheDir, filepath.Join(dataDir, "missing"))
	if err != nil {
		t.Fatalf("CleanupTempFiles() failed: %v", err)
	}
	if cleaned != 2 {
		t.Errorf("cleaned %d files, want 2", cleaned)
	}
	for path, removed := range files {
		_, err := os.Stat(path)
		if removed && !os.IsNotExist(err) {
			t.Errorf("%s should be removed", path)
		}
		if !removed && err != nil {
			t.Errorf("%s should be kept: %v", path, err)
		}
	}
}

func TestHeldErrorMessage(t *testing.T) {
	tests := []struct {
		held HeldError
		want string
	}{
		{HeldError{}, "lock held by another process"},
		{HeldError{PID: 42}, "lock held by process 42"},
		{HeldError{PID: 42, Owner: "data.fetch"}, "lock held by process 42 (data.fetch)"},
	}
	for _, tt := range tests {
		if got := tt.held.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
