// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log exports logging primitives that log to stderr and,
// optionally, to Google Cloud Logging.
package log

// We call this log instead of logging for two reasons:
// 1) It's shorter to type;
// 2) it mimics Go's log package and can be used as a drop-in replacement for it.

import (
	"context"
	goLog "log"
	"os"
	"sync"

	"cloud.google.com/go/logging"
)

// Logger is the interface for logging messages.
type Logger interface {
	// Printf writes a formated message to the log.
	Printf(format string, v ...interface{})

	// Print writes a message to the log.
	Print(v ...interface{})

	// Println writes a line to the log.
	Println(v ...interface{})

	// Fatal writes a message to the log and aborts.
	Fatal(v ...interface{})

	// Fatalf writes a formated message to the log and aborts.
	Fatalf(format string, v ...interface{})
}

// Level is the level of logging.
type Level int

// Different levels of logging.
const (
	Ldebug    Level = iota
	Linfo
	Lerror
	Ldisabled
	Linvalid = Level(-2)
)

// Pre-allocated Loggers at each logging level.
var (
	Debug = newLogger(Ldebug)
	Info  = newLogger(Linfo)
	Error = newLogger(Lerror)

	mu            sync.Mutex
	currentLevel  = Linfo
	defaultClient *logging.Client
	defaultLogger Logger = goLog.New(os.Stderr, "", goLog.Ldate|goLog.Ltime|goLog.LUTC|goLog.Lmicroseconds)
)

type logger struct {
	level Level
}

var _ Logger = (*logger)(nil)

func (l Level) String() string {
	switch l {
	case Ldebug:
		return "debug"
	case Linfo:
		return "info"
	case Lerror:
		return "error"
	case Ldisabled:
		return "disabled"
	}
	return "unknown error type"
}

// ParseLevel converts a level name such as "debug" into a Level,
// returning Linvalid if s does not name a known level.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Ldebug
	case "info":
		return Linfo
	case "error":
		return Lerror
	case "disabled":
		return Ldisabled
	}
	return Linvalid
}

func (l *logger) severity() logging.Severity {
	switch l.level {
	case Ldebug:
		return logging.Debug
	case Linfo:
		return logging.Info
	case Lerror:
		return logging.Error
	}
	return logging.Default
}

// Printf writes a formated message to the log.
func (l *logger) Printf(format string, v ...interface{}) {
	if l.level < CurrentLevel() {
		return // Don't log at lower levels.
	}
	if c := cloudClient(); c != nil {
		c.Logger("dcp").StandardLogger(l.severity()).Printf(format, v...)
	}
	defaultLogger.Printf(format, v...)
}

// Print writes a message to the log.
func (l *logger) Print(v ...interface{}) {
	if l.level < CurrentLevel() {
		return // Don't log at lower levels.
	}
	if c := cloudClient(); c != nil {
		c.Logger("dcp").StandardLogger(l.severity()).Print(v...)
	}
	defaultLogger.Print(v...)
}

// Println writes a line to the log.
func (l *logger) Println(v ...interface{}) {
	if l.level < CurrentLevel() {
		return // Don't log at lower levels.
	}
	if c := cloudClient(); c != nil {
		c.Logger("dcp").StandardLogger(l.severity()).Println(v...)
	}
	defaultLogger.Println(v...)
}

// Fatal writes a message to the log and aborts, regardless of the current log level.
func (l *logger) Fatal(v ...interface{}) {
	if c := cloudClient(); c != nil {
		c.Logger("dcp").StandardLogger(l.severity()).Print(v...)
	}
	defaultLogger.Fatal(v...)
}

// Fatalf writes a formated message to the log and aborts, regardless of the current log level.
func (l *logger) Fatalf(format string, v ...interface{}) {
	if c := cloudClient(); c != nil {
		c.Logger("dcp").StandardLogger(l.severity()).Printf(format, v...)
	}
	defaultLogger.Fatalf(format, v...)
}

// SetLevel sets the current logging level. Lower levels than current will not be logged.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// CurrentLevel returns the current logging level.
func CurrentLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel
}

// At returns whether the level will be logged currently.
func At(level Level) bool {
	return CurrentLevel() <= level
}

// Printf writes a formated message to the log.
func Printf(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

// Print writes a message to the log.
func Print(v ...interface{}) {
	Info.Print(v...)
}

// Println writes a line to the log.
func Println(v ...interface{}) {
	Info.Println(v...)
}

// Fatal writes a message to the log and aborts.
func Fatal(v ...interface{}) {
	Info.Fatal(v...)
}

// Fatalf writes a formated message to the log and aborts.
func Fatalf(format string, v ...interface{}) {
	Info.Fatalf(format, v...)
}

// Connect connects all package-level loggers in this address space to a
// Google Cloud Logging instance for the given project, writing under the
// log name "dcp".
func Connect(ctx context.Context, projectID string) error {
	client, err := logging.NewClient(ctx, "projects/"+projectID)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultClient = client
	mu.Unlock()
	return nil
}

func cloudClient() *logging.Client {
	mu.Lock()
	defer mu.Unlock()
	return defaultClient
}

// newLogger instantiates a Logger at a fixed level.
func newLogger(level Level) Logger {
	return &logger{level: level}
}
