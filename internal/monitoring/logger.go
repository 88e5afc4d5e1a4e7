// Package monitoring holds the mission diagnostic logger.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// is replaced through SetLogger.
var Logf func(format string, v ...any) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetVerbose toggles per-tick Debugf output.
func SetVerbose(on bool) { verbose.Store(on) }

// Verbose reports whether Debugf output is enabled.
func Verbose() bool { return verbose.Load() }

// Debugf logs through Logf only when verbose output is on.
func Debugf(format string, v ...any) {
	if verbose.Load() {
		Logf(format, v...)
	}
}
