// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package device

import "fmt"

// Capacity bounds the Joystick Set: the daemon tracks at most this many
// simultaneously open joystick devices. The limit exists so a
// misbehaving environment (a hub flooding hotplug events) can't grow
// the daemon's open-file count without bound.
const Capacity = 16

// Set is the Joystick Set: a fixed-capacity registry of open Joystick
// records, keyed by node path, with O(1) add/remove via swap-with-last
// compaction. It is not safe for concurrent use; the Activity Engine
// owns it and mutates it only from its own goroutine.
type Set struct {
	slots []*Joystick
	index map[string]int // node path -> slot in slots
}

// NewSet returns an empty Joystick Set.
func NewSet() *Set {
	return &Set{
		slots: make([]*Joystick, 0, Capacity),
		index: make(map[string]int, Capacity),
	}
}

// Len returns the number of joysticks currently tracked.
func (s *Set) Len() int {
	return len(s.slots)
}

// Full reports whether the set is at Capacity.
func (s *Set) Full() bool {
	return len(s.slots) >= Capacity
}

// Contains reports whether nodePath is already tracked.
func (s *Set) Contains(nodePath string) bool {
	_, ok := s.index[nodePath]
	return ok
}

// Add inserts j, keyed by j.NodePath. It returns an error if the set is
// full or nodePath is already tracked — both are caller bugs, since the
// Activity Engine is expected to check Full/Contains before probing a
// new device open.
func (s *Set) Add(j *Joystick) error {
	if s.Full() {
		return fmt.Errorf("joystick set: at capacity (%d)", Capacity)
	}
	if _, exists := s.index[j.NodePath]; exists {
		return fmt.Errorf("joystick set: %s already tracked", j.NodePath)
	}
	j.index = len(s.slots)
	s.slots = append(s.slots, j)
	s.index[j.NodePath] = j.index
	return nil
}

// Remove drops the record for nodePath, if tracked, by swapping the
// last slot into its place and truncating by one. It reports whether a
// record was found and removed; it does not close the record — the
// caller closes it before or after removal as the transition requires.
func (s *Set) Remove(nodePath string) (*Joystick, bool) {
	i, ok := s.index[nodePath]
	if !ok {
		return nil, false
	}

	removed := s.slots[i]
	last := len(s.slots) - 1
	s.slots[i] = s.slots[last]
	s.slots[i].index = i
	s.index[s.slots[i].NodePath] = i
	s.slots[last] = nil
	s.slots = s.slots[:last]
	delete(s.index, nodePath)
	removed.index = -1
	return removed, true
}

// All returns a snapshot slice of the currently tracked joysticks. The
// slice is owned by the caller; mutating the Set afterward does not
// affect it.
func (s *Set) All() []*Joystick {
	out := make([]*Joystick, len(s.slots))
	copy(out, s.slots)
	return out
}

// CloseAll closes every tracked record and empties the set. Each Close
// marks its record as stopping before closing the descriptor, so the
// reader goroutines exit on the resulting read error without posting a
// Removed event.
func (s *Set) CloseAll() {
	for _, j := range s.slots {
		_ = j.Close()
		j.index = -1
	}
	s.slots = s.slots[:0]
	s.index = make(map[string]int, Capacity)
}
