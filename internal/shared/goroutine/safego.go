// Package goroutine provides utilities for running callbacks and goroutines
// with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"leadsync/internal/shared/logger"
)

// SafeGo launches a goroutine with panic recovery. If the goroutine panics,
// the panic is caught and logged with stack trace instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go SafeCall(log, name, fn)
}

// SafeCall runs fn on the current goroutine and reports whether it returned
// normally. A panic is logged and swallowed so sibling callbacks keep running.
func SafeCall(log logger.Interface, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			log.Errorw("callback panicked",
				"callback", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
	return true
}
