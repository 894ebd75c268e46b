// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package app

import "testing"

func TestNewRuntimeContext_InstallsSignalHandling(t *testing.T) {
	rc := NewRuntimeContext(nil)
	defer rc.Cancel()

	if rc.Ctx == nil || rc.Cancel == nil {
		t.Fatal("expected a non-nil context and cancel func")
	}
	if rc.ShutdownCh == nil {
		t.Fatal("expected a non-nil shutdown channel")
	}

	select {
	case <-rc.Ctx.Done():
		t.Fatal("expected context to not be done yet")
	default:
	}
}

func TestNewRuntimeContext_CancelClosesContext(t *testing.T) {
	rc := NewRuntimeContext(nil)
	rc.Cancel()

	select {
	case <-rc.Ctx.Done():
	default:
		t.Fatal("expected context to be done after Cancel")
	}
}

func TestNewApp_ReturnsUninitializedComponents(t *testing.T) {
	a := NewApp(nil)
	if a.Runtime == nil {
		t.Fatal("expected a runtime context to be built eagerly")
	}
	if a.conn != nil || a.engine != nil {
		t.Fatal("expected bus/engine to remain nil until Initialize is called")
	}
}

// A full Initialize/RunAndWait exercise needs a real session bus and
// udev database, which this test environment does not provide; those
// code paths are covered indirectly through the saver, device, and
// engine packages' own unit tests against fakes.
