// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package logger provides leveled, line-buffered logging for the
// daemon. Info and Debug go to stdout; Warning and Error go to stderr,
// so that normal events and failures stay on separate streams.
package logger

import (
	"log"
	"os"
)

// LogLevel represents the level of logging
type LogLevel int

const (
	// Debug log level
	DebugLevel LogLevel = iota
	// Info log level
	InfoLevel
	// Warning log level
	WarningLevel
	// Error log level
	ErrorLevel
)

// Logger interface defines methods for logging at different levels
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DefaultLogger implements the Logger interface using the standard log
// package, one *log.Logger per stream so stdout/stderr routing doesn't
// depend on global log package state.
type DefaultLogger struct {
	level LogLevel
	out   *log.Logger
	err   *log.Logger
}

// NewDefaultLogger creates a new default logger with the specified log level
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		level: level,
		out:   log.New(os.Stdout, "", log.LstdFlags),
		err:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Debug logs a debug message to stdout
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	if l.level <= DebugLevel {
		l.out.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an informational message to stdout
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	if l.level <= InfoLevel {
		l.out.Printf("[INFO] "+format, args...)
	}
}

// Warning logs a warning message to stderr
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	if l.level <= WarningLevel {
		l.err.Printf("[WARNING] "+format, args...)
	}
}

// Error logs an error message to stderr
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	if l.level <= ErrorLevel {
		l.err.Printf("[ERROR] "+format, args...)
	}
}
