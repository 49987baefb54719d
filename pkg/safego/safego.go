// Package safego wraps background goroutines with panic recovery so a
// misbehaving helper (config watcher, dashboard refresher) can never take
// the simulator down.
package safego

import (
	"go.uber.org/zap"
)

// Go launches fn in a goroutine. A panic is logged with its stack and the
// goroutine exits cleanly instead of crashing the process.
//
// Usage:
//
//	safego.Go(logger, "config-watcher", watcher.Start)
func Go(logger *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Goroutine panicked",
					zap.String("goroutine", name),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()
		fn()
	}()
}
