// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
)

const (
	// evKey is the kernel's EV_KEY event type.
	evKey = 0x01

	// inputEventSize is sizeof(struct input_event) on a 64-bit kernel:
	// a 16-byte timeval (two 8-byte kernel longs) followed by a 2-byte
	// type, 2-byte code, and 4-byte value.
	inputEventSize = 24
)

// Kind classifies a decoded input event for the Activity Engine.
type Kind int

const (
	// Other is any event that isn't a qualifying button press: axis
	// motion, sync events, auto-repeat, or a key event whose value
	// isn't the release value.
	Other Kind = iota
	// ButtonPress is a key-type event whose value is 0 — the
	// transport's button-release value, chosen because releases
	// debounce better than presses for "user just did something".
	ButtonPress
	// Removed reports that the device's reader detected removal: a
	// short read, ENODEV, or another read error.
	Removed
)

// Event is posted by a Joystick's reader goroutine onto the Activity
// Engine's shared events channel.
type Event struct {
	Joystick *Joystick
	Kind     Kind
	Err      error // set only when Kind == Removed
}

// Joystick is the Joystick Set's record: identity (node path, display
// name), an open read handle, and a diagnostic event counter. Its
// descriptor and reader goroutine are created and destroyed together —
// the goroutine *is* the record's event-loop I/O source, in the Go
// idiom of this daemon (see SPEC_FULL.md §4.6): Go's runtime integrates
// pollable character devices with its network poller even for plain
// os.File reads, so a blocked Read() is unblocked the moment another
// goroutine closes the same *os.File, exactly as the teacher's evdev
// listener loop relies on.
type Joystick struct {
	NodePath string
	Name     string

	file       *os.File
	stopping   int32  // atomic; set before Close so the reader exits quietly
	eventCount uint64 // atomic; diagnostic only

	index int // current slot in the owning Set; maintained by Set, not self
}

// EventCount returns the number of input_event records read from this
// device so far. Diagnostic only; not used for any transition decision.
func (j *Joystick) EventCount() uint64 {
	return atomic.LoadUint64(&j.eventCount)
}

// Open opens nodePath read-only and wraps it in a Joystick record. The
// device is not yet being read; call Start to begin delivering events.
func Open(nodePath, name string) (*Joystick, error) {
	f, err := os.OpenFile(nodePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", nodePath, err)
	}
	return Wrap(f, nodePath, name), nil
}

// Wrap builds a Joystick around an already-open file handle. Exported so
// callers that inject their own open step (the Activity Engine's tests,
// substituting a harmless file for a real joystick node) can still
// produce a well-formed record.
func Wrap(f *os.File, nodePath, name string) *Joystick {
	return &Joystick{NodePath: nodePath, Name: name, file: f}
}

// Start launches the reader goroutine, which decodes one fixed-size
// input_event record per read and posts a classified Event to out.
func (j *Joystick) Start(out chan<- Event) {
	go j.readLoop(out)
}

// Close marks the record as intentionally stopping and closes its
// descriptor, unblocking the reader goroutine's pending read.
func (j *Joystick) Close() error {
	atomic.StoreInt32(&j.stopping, 1)
	return j.file.Close()
}

func (j *Joystick) readLoop(out chan<- Event) {
	buf := make([]byte, inputEventSize)
	for {
		n, err := j.file.Read(buf)
		if atomic.LoadInt32(&j.stopping) == 1 {
			// Close() was called deliberately; this isn't a removal.
			return
		}
		if err != nil {
			out <- Event{Joystick: j, Kind: Removed, Err: classifyReadErr(err)}
			return
		}
		if n != inputEventSize {
			out <- Event{Joystick: j, Kind: Removed, Err: fmt.Errorf("short read: %d of %d bytes", n, inputEventSize)}
			return
		}

		atomic.AddUint64(&j.eventCount, 1)
		typ := binary.LittleEndian.Uint16(buf[16:18])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))

		kind := Other
		if typ == evKey && value == 0 {
			kind = ButtonPress
		}
		out <- Event{Joystick: j, Kind: kind}
	}
}

// classifyReadErr maps a read failure to the spec's error policy: ENODEV
// is expected and silent, anything else is logged by the caller.
func classifyReadErr(err error) error {
	if errors.Is(err, syscall.ENODEV) {
		return syscall.ENODEV
	}
	return err
}
