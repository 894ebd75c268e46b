// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package saver

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// OwnerEvent reports a name-ownership transition for the watched
// well-known bus name: Appeared is true when a new owner took the name,
// false when the name lost its owner.
type OwnerEvent struct {
	Appeared bool
}

// Watcher subscribes to org.freedesktop.DBus.NameOwnerChanged, filtered
// to a single well-known name, and classifies each transition as
// appeared or disappeared.
type Watcher struct {
	conn    *dbus.Conn
	name    string
	signals chan *dbus.Signal
	events  chan OwnerEvent
}

// NewWatcher builds a Watcher for name over an already-connected bus
// connection. Call Start to begin receiving events.
func NewWatcher(conn *dbus.Conn, name string) *Watcher {
	return &Watcher{
		conn:   conn,
		name:   name,
		events: make(chan OwnerEvent, 8),
	}
}

// Start installs the match rule and begins delivering OwnerEvents on
// the channel returned by Events.
func (w *Watcher) Start() error {
	rule := fmt.Sprintf(
		"type='signal',interface='org.freedesktop.DBus',member='NameOwnerChanged',arg0='%s'",
		w.name,
	)
	if call := w.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
		return &BusError{Op: "AddMatch", Err: call.Err}
	}

	w.signals = make(chan *dbus.Signal, 16)
	w.conn.Signal(w.signals)
	go w.pump()
	return nil
}

func (w *Watcher) pump() {
	for sig := range w.signals {
		if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
			continue
		}
		name, ok := sig.Body[0].(string)
		if !ok || name != w.name {
			continue
		}
		newOwner, _ := sig.Body[2].(string)
		w.events <- OwnerEvent{Appeared: newOwner != ""}
	}
	close(w.events)
}

// Events returns the channel OwnerEvents are delivered on. It is closed
// once Stop has fully drained the underlying signal channel.
func (w *Watcher) Events() <-chan OwnerEvent {
	return w.events
}

// Stop unregisters from bus signal delivery. Safe to call once Start
// has succeeded.
func (w *Watcher) Stop() {
	if w.signals == nil {
		return
	}
	w.conn.RemoveSignal(w.signals)
	close(w.signals)
}
