// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/linuxgaming/joynosleepd/internal/app"
	"github.com/linuxgaming/joynosleepd/internal/logger"
	"github.com/linuxgaming/joynosleepd/internal/utils"
)

// The daemon takes no arguments; any argument is a usage error.
func main() {
	if len(os.Args) > 1 {
		fmt.Fprintln(os.Stderr, "joynosleepd takes no arguments")
		os.Exit(1)
	}
	os.Exit(runDaemon())
}

// runDaemon bootstraps the logger and single-instance lock, then hands
// off to the App for initialization and the signal-driven run loop.
// It returns 0 on a clean signal-driven exit and a negative
// errno-mapped code on fatal startup failure.
func runDaemon() int {
	appLogger := logger.NewDefaultLogger(logger.InfoLevel)

	lockFile := utils.NewLockFile(utils.GetDefaultLockPath())
	if isRunning, pid, err := lockFile.CheckExistingInstance(); err != nil {
		appLogger.Warning("failed to check existing instance: %v", err)
	} else if isRunning {
		fmt.Fprintf(os.Stderr, "another instance of joynosleepd is already running (pid %d)\n", pid)
		return -int(syscall.EEXIST)
	}
	if err := lockFile.TryLock(); err != nil {
		appLogger.Error("failed to acquire application lock: %v", err)
		return fatalExitCode(err)
	}
	defer func() {
		if err := lockFile.Unlock(); err != nil {
			appLogger.Warning("failed to release lock: %v", err)
		}
	}()

	application := app.NewApp(appLogger)

	if err := application.Initialize(); err != nil {
		appLogger.Error("failed to initialize: %v", err)
		return fatalExitCode(err)
	}
	if err := application.RunAndWait(); err != nil {
		appLogger.Error("application error: %v", err)
		return fatalExitCode(err)
	}

	return 0
}

// fatalExitCode maps a fatal startup error to a negative errno-mapped
// exit code, or -1 if the error doesn't carry a recognizable errno.
func fatalExitCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	return -1
}
