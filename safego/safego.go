// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Go launches fn in a new goroutine. A panic inside fn is recovered and logged
// instead of crashing the process.
func Go(logger *zap.Logger, fn func()) {
	go Run(logger, fn)
}

// Run calls fn on the current goroutine with the same panic recovery as Go.
func Run(logger *zap.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered panic in background goroutine",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}
