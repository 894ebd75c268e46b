// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package config resolves the daemon's single tunable — the quiet
// interval after which an active inhibit is released — from the
// environment, with a compiled-in default. There is no configuration
// file: the daemon's behavior is otherwise fixed.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/linuxgaming/joynosleepd/internal/logger"
)

const (
	// InhibitTimeoutEnvVar overrides the quiet interval, in microseconds.
	InhibitTimeoutEnvVar = "JOYNOSLEEP_INHIBIT_TIMEOUT_US"

	// DefaultQuietInterval is the time of inactivity on tracked
	// joysticks after which the inhibit is released.
	DefaultQuietInterval = 600_000_000 * time.Microsecond

	// CoalesceAccuracy is the event-loop timer coalescing accuracy
	// granted to the quiet-interval timeout.
	CoalesceAccuracy = 1 * time.Minute
)

// Config holds the daemon's resolved runtime tunables.
type Config struct {
	QuietInterval    time.Duration
	CoalesceAccuracy time.Duration
}

// Load resolves Config from the environment, falling back to compiled-in
// defaults for anything unset or invalid.
func Load(log logger.Logger) Config {
	cfg := Config{
		QuietInterval:    DefaultQuietInterval,
		CoalesceAccuracy: CoalesceAccuracy,
	}

	raw := os.Getenv(InhibitTimeoutEnvVar)
	if raw == "" {
		return cfg
	}

	micros, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || micros <= 0 {
		log.Warning("ignoring invalid %s=%q, using default of %s", InhibitTimeoutEnvVar, raw, DefaultQuietInterval)
		return cfg
	}

	cfg.QuietInterval = time.Duration(micros) * time.Microsecond
	log.Info("quiet interval set to %s via %s", cfg.QuietInterval, InhibitTimeoutEnvVar)
	return cfg
}
