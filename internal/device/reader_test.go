// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package device

import (
	"encoding/binary"
	"os"
	"testing"
	"time"
)

// writeInputEvent appends one raw input_event record to f.
func writeInputEvent(t *testing.T, f *os.File, typ, code uint16, value int32) {
	t.Helper()
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], typ)
	binary.LittleEndian.PutUint16(buf[18:20], code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	if _, err := f.Write(buf); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func openTestPipe(t *testing.T) (*Joystick, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return &Joystick{NodePath: "/test/pipe", Name: "test", file: r}, w
}

func TestJoystick_ClassifiesButtonPress(t *testing.T) {
	j, w := openTestPipe(t)
	out := make(chan Event, 4)
	j.Start(out)

	writeInputEvent(t, w, evKey, 0x130, 0) // BTN_A release

	select {
	case ev := <-out:
		if ev.Kind != ButtonPress {
			t.Errorf("expected ButtonPress, got %v", ev.Kind)
		}
		if ev.Joystick != j {
			t.Errorf("expected event to reference the source joystick")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	if got := j.EventCount(); got != 1 {
		t.Errorf("expected event count 1, got %d", got)
	}
}

func TestJoystick_ClassifiesOtherEvents(t *testing.T) {
	j, w := openTestPipe(t)
	out := make(chan Event, 4)
	j.Start(out)

	writeInputEvent(t, w, 0x03, 0x00, 512) // EV_ABS, not a button release

	select {
	case ev := <-out:
		if ev.Kind != Other {
			t.Errorf("expected Other, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestJoystick_KeyPressValueIsNotAButtonRelease(t *testing.T) {
	j, w := openTestPipe(t)
	out := make(chan Event, 4)
	j.Start(out)

	writeInputEvent(t, w, evKey, 0x130, 1) // BTN_A press, not release

	select {
	case ev := <-out:
		if ev.Kind != Other {
			t.Errorf("expected Other for a key-down event, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestJoystick_CloseStopsReaderWithoutRemovedEvent(t *testing.T) {
	j, w := openTestPipe(t)
	defer w.Close()
	out := make(chan Event, 4)
	j.Start(out)

	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case ev := <-out:
		t.Fatalf("expected no event after deliberate close, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoystick_ShortReadReportsRemoved(t *testing.T) {
	j, w := openTestPipe(t)
	out := make(chan Event, 4)
	j.Start(out)

	if _, err := w.Write([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("write short record: %v", err)
	}
	w.Close()

	select {
	case ev := <-out:
		if ev.Kind != Removed {
			t.Errorf("expected Removed, got %v", ev.Kind)
		}
		if ev.Err == nil {
			t.Error("expected a non-nil error describing the short read")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
