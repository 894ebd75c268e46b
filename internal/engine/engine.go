// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package engine implements the Activity Engine: the state machine that
// owns the inhibit cookie, the quiet-interval timer, and the wiring
// between joystick input activity and screen-saver inhibit calls.
package engine

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/linuxgaming/joynosleepd/internal/device"
	"github.com/linuxgaming/joynosleepd/internal/logger"
	"github.com/linuxgaming/joynosleepd/internal/saver"
)

const inhibitReason = "joystick in use"

// State is one of the engine's three states.
type State int

const (
	// Disarmed: saver absent, no devices tracked, no cookie, timer disabled.
	Disarmed State = iota
	// ArmedIdle: saver present, devices tracked, no cookie, timer disabled.
	ArmedIdle
	// ArmedActive: saver present, cookie live, timer armed.
	ArmedActive
)

func (s State) String() string {
	switch s {
	case Disarmed:
		return "DISARMED"
	case ArmedIdle:
		return "ARMED_IDLE"
	case ArmedActive:
		return "ARMED_ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// Engine is the single-goroutine owner of all mutable daemon state. Run
// must be called from exactly one goroutine; every transition method
// below is unexported for the same reason — they are called
// only from within Run's select loop, never concurrently.
type Engine struct {
	log              logger.Logger
	saverClient      saver.Client
	source           device.Source
	ownerEvents      <-chan saver.OwnerEvent
	quietInterval    time.Duration
	coalesceAccuracy time.Duration

	state   State
	cookie  uint32
	devices *device.Set

	deviceEvents  chan device.Event
	hotplug       <-chan device.HotplugEvent
	hotplugCancel context.CancelFunc

	timer *time.Timer

	// openDevice opens a Probe-accepted node path. Overridable so tests
	// can exercise the full enumerate/probe/track path without a real
	// joystick character device on the test machine.
	openDevice func(nodePath, name string) (*device.Joystick, error)
}

// New builds an Engine. ownerEvents must already be subscribed (the
// Name Watcher is started by the caller before Run is invoked) so no
// NameOwnerChanged notification is lost between construction and Run.
// coalesceAccuracy batches the quiet-interval timer to that granularity
// (see armTimer) rather than firing at the exact microsecond.
func New(log logger.Logger, saverClient saver.Client, source device.Source, ownerEvents <-chan saver.OwnerEvent, quietInterval, coalesceAccuracy time.Duration) *Engine {
	return &Engine{
		log:              log,
		saverClient:      saverClient,
		source:           source,
		ownerEvents:      ownerEvents,
		quietInterval:    quietInterval,
		coalesceAccuracy: coalesceAccuracy,
		devices:          device.NewSet(),
		deviceEvents:     make(chan device.Event, device.Capacity),
		openDevice:       device.Open,
	}
}

// State returns the engine's current state. Safe to call only from the
// Run goroutine, or after Run has returned.
func (e *Engine) State() State {
	return e.state
}

// Run drives the engine's select loop until ctx is cancelled or the
// owner-event channel closes (the bus connection went away under us).
func (e *Engine) Run(ctx context.Context) {
	for {
		var timerC <-chan time.Time
		if e.timer != nil {
			timerC = e.timer.C
		}

		select {
		case <-ctx.Done():
			e.shutdown()
			return

		case ev, ok := <-e.ownerEvents:
			if !ok {
				e.shutdown()
				return
			}
			if ev.Appeared {
				e.onSaverAppeared(ctx)
			} else {
				e.onSaverDisappeared()
			}

		case ev, ok := <-e.hotplug:
			if !ok {
				// The monitor goroutine exited on its own (not via our
				// own cancellation); nil the channel so this case blocks
				// forever instead of busy-looping on a closed channel.
				e.hotplug = nil
				continue
			}
			e.onHotplug(ev)

		case ev := <-e.deviceEvents:
			e.onDeviceEvent(ev)

		case <-timerC:
			e.onTimeout()
		}
	}
}

// onSaverAppeared performs the DISARMED -> ARMED_IDLE transition:
// enumerate devices, open the joystick-class ones, and start the
// hotplug monitor. An appeared event while already armed is ignored.
func (e *Engine) onSaverAppeared(ctx context.Context) {
	if e.state != Disarmed {
		return
	}
	records, err := e.source.Enumerate()
	if err != nil {
		e.log.Warning("enumerate devices: %v", err)
		records = nil
	}

	joysticks, tracked := 0, 0
	for _, rec := range records {
		nodePath, name, ok := device.Probe(rec)
		if !ok {
			continue
		}
		joysticks++
		if e.trackDevice(nodePath, name) {
			tracked++
		}
	}
	e.log.Info("Found %d inputs, %d joysticks, %d tracked", len(records), joysticks, tracked)

	monitorCtx, cancel := context.WithCancel(ctx)
	hotplug, err := e.source.Monitor(monitorCtx)
	if err != nil {
		e.log.Warning("hotplug monitor setup failed: %v", err)
		cancel()
		hotplug = nil
	}
	e.hotplug = hotplug
	e.hotplugCancel = cancel

	e.state = ArmedIdle
}

// onSaverDisappeared performs the ARMED_* -> DISARMED transition. A
// live cookie is discarded without calling UnInhibit: the remote that
// would receive the call is already gone.
func (e *Engine) onSaverDisappeared() {
	if e.state == Disarmed {
		return
	}
	if e.cookie != 0 {
		e.log.Info("screen saver disappeared with a live cookie; discarding without UnInhibit")
		e.cookie = 0
	}
	e.disableTimer()
	if e.hotplugCancel != nil {
		e.hotplugCancel()
		e.hotplugCancel = nil
	}
	e.hotplug = nil
	e.devices.CloseAll()
	e.state = Disarmed
}

// onButtonPress performs ARMED_IDLE -> ARMED_ACTIVE (issuing the
// Inhibit call) or re-arms the timer if already ARMED_ACTIVE.
func (e *Engine) onButtonPress() {
	switch e.state {
	case ArmedIdle:
		cookie, err := e.saverClient.Inhibit(inhibitReason)
		if err != nil {
			e.log.Error("inhibit failed: %v", err)
			return
		}
		e.cookie = cookie
		e.state = ArmedActive
		e.armTimer()
	case ArmedActive:
		e.armTimer()
	case Disarmed:
		// Stray event from a device whose removal raced this read; ignore.
	}
}

// onTimeout performs ARMED_ACTIVE -> ARMED_IDLE. A BusError leaves the
// state untouched; the next button press or name-ownership change
// retries.
func (e *Engine) onTimeout() {
	if e.state != ArmedActive {
		return
	}
	if err := e.saverClient.UnInhibit(e.cookie); err != nil {
		e.log.Error("uninhibit failed: %v", err)
		return
	}
	e.cookie = 0
	e.state = ArmedIdle
}

// onHotplug tracks a device added to the input subsystem. Setup or
// probe failures here are non-fatal. "remove" is deliberately a no-op:
// the underlying transport can deliver it in either order relative to
// the device node's disappearance, so untracking is left entirely to
// the reader's own ENODEV/short-read detection (see onDeviceEvent).
func (e *Engine) onHotplug(ev device.HotplugEvent) {
	switch ev.Action {
	case "add":
		nodePath, name, ok := device.Probe(ev.Record)
		if !ok {
			return
		}
		if e.trackDevice(nodePath, name) {
			e.log.Info("tracking new joystick %s (%s)", nodePath, name)
		}
	case "remove":
		e.log.Debug("hotplug remove for %s; awaiting reader detection", ev.Record.Devnode())
	}
}

// onDeviceEvent handles one decoded event from a tracked joystick's reader.
func (e *Engine) onDeviceEvent(ev device.Event) {
	switch ev.Kind {
	case device.ButtonPress:
		e.onButtonPress()
	case device.Removed:
		e.untrackDevice(ev.Joystick.NodePath, ev.Err)
	}
}

// trackDevice opens and registers nodePath if there is room for it. It
// reports whether the device ended up tracked.
func (e *Engine) trackDevice(nodePath, name string) bool {
	if e.devices.Contains(nodePath) || e.devices.Full() {
		return false
	}
	j, err := e.openDevice(nodePath, name)
	if err != nil {
		e.log.Warning("open %s: %v", nodePath, err)
		return false
	}
	if err := e.devices.Add(j); err != nil {
		e.log.Warning("track %s: %v", nodePath, err)
		_ = j.Close()
		return false
	}
	j.Start(e.deviceEvents)
	return true
}

// untrackDevice removes and closes nodePath's record, if tracked,
// logging readErr unless it is the expected ENODEV removal signal.
func (e *Engine) untrackDevice(nodePath string, readErr error) {
	j, ok := e.devices.Remove(nodePath)
	if !ok {
		return
	}
	_ = j.Close()
	if readErr != nil && !errors.Is(readErr, syscall.ENODEV) {
		e.log.Warning("joystick %s read error: %v", nodePath, readErr)
	} else {
		e.log.Info("joystick %s removed", nodePath)
	}
}

func (e *Engine) armTimer() {
	e.disableTimer()
	e.timer = time.NewTimer(coalesce(e.quietInterval, e.coalesceAccuracy))
}

// coalesce rounds d up to the next multiple of accuracy, batching the
// quiet-interval wakeup to that granularity instead of firing at the
// exact requested duration. accuracy <= 0 disables coalescing.
func coalesce(d, accuracy time.Duration) time.Duration {
	if accuracy <= 0 {
		return d
	}
	if rem := d % accuracy; rem != 0 {
		return d + (accuracy - rem)
	}
	return d
}

func (e *Engine) disableTimer() {
	if e.timer == nil {
		return
	}
	e.timer.Stop()
	e.timer = nil
}

// shutdown drains the Joystick Set and stops the hotplug monitor on
// process exit, mirroring the ordering onSaverDisappeared uses.
func (e *Engine) shutdown() {
	e.disableTimer()
	if e.hotplugCancel != nil {
		e.hotplugCancel()
		e.hotplugCancel = nil
	}
	e.devices.CloseAll()
}
