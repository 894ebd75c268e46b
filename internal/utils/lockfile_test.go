// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLockFile_TryLockAndUnlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lock")

	lf := NewLockFile(path)
	if err := lf.TryLock(); err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}

	if err := lf.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lock file to be removed after Unlock")
	}
}

func TestLockFile_SecondLockFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lock")

	first := NewLockFile(path)
	if err := first.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	defer func() { _ = first.Unlock() }()

	second := NewLockFile(path)
	if err := second.TryLock(); err == nil {
		t.Fatal("expected second TryLock to fail while first holds the lock")
	}
}

func TestLockFile_CheckExistingInstance_NoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.lock")

	lf := NewLockFile(path)
	running, pid, err := lf.CheckExistingInstance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if running {
		t.Fatal("expected no running instance for a missing lock file")
	}
	if pid != 0 {
		t.Fatalf("expected pid 0, got %d", pid)
	}
}

func TestGetDefaultLockPath_UsesRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	got := GetDefaultLockPath()
	want := filepath.Join(dir, DefaultLockFileName)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
