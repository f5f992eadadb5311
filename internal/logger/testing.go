package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger creates a logger that captures logs for assertions.
func TestLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// TestContext creates a context carrying a test logger.
func TestContext() (context.Context, *observer.ObservedLogs) {
	l, logs := TestLogger()
	return ContextWithLogger(context.Background(), l), logs
}
