// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package app wires together the daemon's components — the session bus
// connection, the saver client and name watcher, the device source,
// and the Activity Engine — and owns the process's startup and
// shutdown ordering.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"

	"github.com/linuxgaming/joynosleepd/internal/config"
	"github.com/linuxgaming/joynosleepd/internal/device"
	"github.com/linuxgaming/joynosleepd/internal/engine"
	"github.com/linuxgaming/joynosleepd/internal/logger"
	"github.com/linuxgaming/joynosleepd/internal/saver"
	"github.com/linuxgaming/joynosleepd/internal/utils"
)

// RuntimeContext carries the process-lifetime context and the signal
// channel that ends RunAndWait's wait.
type RuntimeContext struct {
	Ctx        context.Context
	Cancel     context.CancelFunc
	ShutdownCh chan os.Signal
	Logger     logger.Logger
}

// NewRuntimeContext installs SIGINT/SIGTERM handling and returns a
// fresh, cancellable runtime context.
func NewRuntimeContext(log logger.Logger) *RuntimeContext {
	ctx, cancel := context.WithCancel(context.Background())
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	return &RuntimeContext{
		Ctx:        ctx,
		Cancel:     cancel,
		ShutdownCh: shutdownCh,
		Logger:     log,
	}
}

// App is the assembled daemon: a bus connection, the components built
// on top of it, and the engine that drives them.
type App struct {
	Runtime *RuntimeContext

	conn        *dbus.Conn
	saverClient saver.Client
	watcher     *saver.Watcher
	source      device.Source
	engine      *engine.Engine

	ownerEvents chan saver.OwnerEvent
	background  utils.Group
}

// NewApp constructs an App; Initialize must be called before RunAndWait.
func NewApp(log logger.Logger) *App {
	return &App{Runtime: NewRuntimeContext(log)}
}

// Initialize connects to the session bus and builds the daemon's
// components, in the order spec'd for startup: bus connection, saver
// client, Name Watcher, device source, Activity Engine.
func (a *App) Initialize() error {
	log := a.Runtime.Logger
	log.Info("initializing joynosleepd...")

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	a.conn = conn

	a.saverClient = saver.NewClient(conn)
	a.watcher = saver.NewWatcher(conn, saver.BusName)
	a.source = device.NewUdevSource(log)

	cfg := config.Load(log)
	a.ownerEvents = make(chan saver.OwnerEvent, 1)
	a.engine = engine.New(log, a.saverClient, a.source, a.ownerEvents, cfg.QuietInterval, cfg.CoalesceAccuracy)

	log.Info("initialization complete")
	return nil
}

// RunAndWait starts the Name Watcher and the Activity Engine, probes
// initial saver ownership, notifies systemd readiness if supervised,
// and blocks until a shutdown signal or context cancellation arrives.
func (a *App) RunAndWait() error {
	log := a.Runtime.Logger

	if err := a.watcher.Start(); err != nil {
		return fmt.Errorf("start name watcher: %w", err)
	}

	present, err := a.saverClient.NameHasOwner(saver.BusName)
	if err != nil {
		return fmt.Errorf("probe screen saver ownership: %w", err)
	}
	if present {
		a.ownerEvents <- saver.OwnerEvent{Appeared: true}
	} else {
		log.Info("waiting for screen saver to appear...")
	}

	a.background.Go(func() { a.forwardWatcherEvents(a.Runtime.Ctx) })
	a.background.Go(func() { a.engine.Run(a.Runtime.Ctx) })

	if ok, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
		log.Warning("systemd readiness notification failed: %v", notifyErr)
	} else if ok {
		log.Debug("notified systemd of readiness")
	}

	select {
	case <-a.Runtime.ShutdownCh:
		log.Info("received shutdown signal")
	case <-a.Runtime.Ctx.Done():
		log.Info("context cancelled")
	}

	return a.Shutdown()
}

// forwardWatcherEvents relays NameOwnerChanged notifications from the
// Name Watcher onto the channel the Activity Engine consumes.
func (a *App) forwardWatcherEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.watcher.Events():
			if !ok {
				return
			}
			select {
			case a.ownerEvents <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Shutdown cancels the runtime context and releases the bus
// connection, in the order spec'd for teardown: stop the Name Watcher,
// let the Activity Engine drain the Joystick Set (it does so on its
// own ctx.Done() case), then close the bus connection.
func (a *App) Shutdown() error {
	log := a.Runtime.Logger
	log.Info("shutting down...")

	a.Runtime.Cancel()
	a.watcher.Stop()

	if ok := a.background.Wait(5 * time.Second); ok {
		log.Info("background tasks completed")
	} else {
		log.Warning("shutdown timeout - forcing exit")
	}

	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			log.Warning("error closing bus connection: %v", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}
