// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package device

import (
	"context"
	"fmt"

	udev "github.com/jochenvg/go-udev"

	"github.com/linuxgaming/joynosleepd/internal/logger"
)

const subsystemInput = "input"

// HotplugEvent reports an add/remove notification for a device in the
// input subsystem.
type HotplugEvent struct {
	Action string // "add" or "remove"
	Record Record
}

// Source enumerates and monitors devices in the input subsystem. It is
// the seam Device Enumerator and Hotplug Monitor are built against.
type Source interface {
	// Enumerate walks the input subsystem once, returning every record seen.
	Enumerate() ([]Record, error)
	// Monitor starts delivering hotplug events until ctx is cancelled.
	// The returned channel is closed when monitoring stops.
	Monitor(ctx context.Context) (<-chan HotplugEvent, error)
}

// UdevSource is a Source backed by libudev via go-udev — the same
// dependency the example pack carries for device/USB passthrough, used
// here for its intended purpose: device enumeration and hotplug.
type UdevSource struct {
	udev udev.Udev
	log  logger.Logger
}

// NewUdevSource builds a Source over the host's udev database.
func NewUdevSource(log logger.Logger) *UdevSource {
	return &UdevSource{log: log}
}

// Enumerate walks the set of devices in the input subsystem once.
func (s *UdevSource) Enumerate() ([]Record, error) {
	e := s.udev.NewEnumerate()
	if err := e.AddMatchSubsystem(subsystemInput); err != nil {
		return nil, fmt.Errorf("enumerate: add match subsystem: %w", err)
	}
	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate: list devices: %w", err)
	}

	records := make([]Record, 0, len(devices))
	for _, d := range devices {
		records = append(records, wrapDevice(d))
	}
	return records, nil
}

// Monitor subscribes to add/remove notifications for the input
// subsystem. Setup failure here is a HotplugSetupError: non-fatal, the
// caller logs it and relies on initial enumeration to have covered the
// common case.
func (s *UdevSource) Monitor(ctx context.Context) (<-chan HotplugEvent, error) {
	mon := s.udev.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem(subsystemInput); err != nil {
		return nil, fmt.Errorf("hotplug: add match subsystem: %w", err)
	}

	devCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hotplug: start monitor: %w", err)
	}

	out := make(chan HotplugEvent)
	go s.pump(ctx, devCh, errCh, out)
	return out, nil
}

func (s *UdevSource) pump(ctx context.Context, devCh <-chan *udev.Device, errCh <-chan error, out chan<- HotplugEvent) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-devCh:
			if !ok {
				return
			}
			action := d.Action()
			if action != "add" && action != "remove" {
				continue
			}
			select {
			case out <- HotplugEvent{Action: action, Record: wrapDevice(d)}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-errCh:
			if !ok {
				continue
			}
			s.log.Warning("udev monitor error: %v", err)
		}
	}
}
