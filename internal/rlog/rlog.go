// Package rlog provides the renderer's process-wide logger.
//
// It wraps the standard log package with a three-level verbosity gate
// instead of pulling in a structured logging library: logging here is
// plain fmt.Printf/Fprintf-style output gated by a verbosity flag, and
// frame-loop log volume never exceeds a couple of lines per frame, so
// the extra dependency buys nothing.
package rlog

import (
	"log"
	"os"
	"sync/atomic"
)

// Level controls how much the logger emits.
type Level int32

const (
	Quiet Level = iota
	Info
	Debug
)

var level atomic.Int32

var std = log.New(os.Stderr, "", log.LstdFlags)

func init() {
	level.Store(int32(Info))
}

// SetLevel changes the process-wide verbosity.
func SetLevel(l Level) {
	level.Store(int32(l))
}

func current() Level {
	return Level(level.Load())
}

// Infof logs a message at Info level or above.
func Infof(format string, args ...any) {
	if current() >= Info {
		std.Printf("[info] "+format, args...)
	}
}

// Debugf logs a message at Debug level only.
func Debugf(format string, args ...any) {
	if current() >= Debug {
		std.Printf("[debug] "+format, args...)
	}
}

// Warnf always logs; warnings are never suppressed by verbosity.
func Warnf(format string, args ...any) {
	std.Printf("[warn] "+format, args...)
}

// Fatalf logs and terminates the process. Reserved for device-lost and
// other conditions the core treats as unrecoverable (see internal/rerr).
func Fatalf(format string, args ...any) {
	std.Fatalf("[fatal] "+format, args...)
}
