// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package device implements joystick discovery (probing, enumeration,
// hotplug) and per-device event reading.
package device

import (
	udev "github.com/jochenvg/go-udev"
)

// Record is the minimal view of a udev device record the probe needs:
// its primary node path, a property lookup, and its parent device. It
// is defined at the point of use so Device Probe can be unit-tested
// without a real udev database.
type Record interface {
	// Devnode returns the device's primary node path, e.g. /dev/input/event3.
	Devnode() string
	// PropertyValue returns a udev property's value, or "" if unset.
	PropertyValue(key string) string
	// Parent returns the parent device record, or nil at the top of the tree.
	Parent() Record
}

// udevRecord adapts a *udev.Device to Record.
type udevRecord struct {
	dev *udev.Device
}

func wrapDevice(dev *udev.Device) Record {
	if dev == nil {
		return nil
	}
	return udevRecord{dev: dev}
}

func (r udevRecord) Devnode() string {
	return r.dev.Devnode()
}

func (r udevRecord) PropertyValue(key string) string {
	return r.dev.PropertyValue(key)
}

func (r udevRecord) Parent() Record {
	return wrapDevice(r.dev.Parent())
}
