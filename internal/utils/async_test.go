// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestGroup_WaitReturnsTrueWhenAllGoroutinesFinish(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var g Group
	var counter int32

	g.Go(func() {
		atomic.AddInt32(&counter, 1)
		time.Sleep(10 * time.Millisecond)
	})
	g.Go(func() {
		atomic.AddInt32(&counter, 1)
		time.Sleep(10 * time.Millisecond)
	})

	if !g.Wait(time.Second) {
		t.Fatal("expected Wait to report completion within the timeout")
	}
	if got := atomic.LoadInt32(&counter); got != 2 {
		t.Errorf("expected both goroutines to have run, got counter=%d", got)
	}
}

func TestGroup_WaitReturnsFalseOnTimeout(t *testing.T) {
	var g Group
	g.Go(func() { time.Sleep(5 * time.Second) })

	start := time.Now()
	if g.Wait(100 * time.Millisecond) {
		t.Fatal("expected Wait to time out while the goroutine is still running")
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Wait returned too late after timeout: %v", elapsed)
	}
	// The sleeping goroutine outlives this test, as it would a real
	// shutdown-timeout exit; no goleak check here for that reason.
}

func TestGroup_WaitWithNoGoroutinesReturnsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var g Group
	start := time.Now()
	if !g.Wait(time.Second) {
		t.Fatal("expected Wait with no tracked goroutines to report completion")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("expected Wait to return promptly, took %v", elapsed)
	}
}

// TestGroup_TracksExactlyTwoGoroutines mirrors App.RunAndWait's actual
// shutdown join: exactly two background goroutines (the Name Watcher
// forwarder and the Activity Engine), not an open-ended pool.
func TestGroup_TracksExactlyTwoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var g Group
	var started int32

	g.Go(func() { atomic.AddInt32(&started, 1) })
	g.Go(func() { atomic.AddInt32(&started, 1) })

	if !g.Wait(time.Second) {
		t.Fatal("expected both tracked goroutines to finish")
	}
	if got := atomic.LoadInt32(&started); got != 2 {
		t.Errorf("expected exactly 2 goroutines to run, got %d", got)
	}
}
