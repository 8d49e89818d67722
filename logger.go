package paranoia

import (
	"context"
	"fmt"
	"time"
)

// OperationLogger logs lifecycle operations executed by an engine.
type OperationLogger interface {
	// LogOperation logs one lifecycle operation with timing, the correlation
	// id of the call and the outcome.
	LogOperation(ctx context.Context, operation string, entityType string, opID string, duration time.Duration, err error)
}

// LogLevel defines the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ConsoleLogger is a simple logger that writes to stdout.
type ConsoleLogger struct {
	MinLevel LogLevel
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(minLevel LogLevel) *ConsoleLogger {
	return &ConsoleLogger{MinLevel: minLevel}
}

// LogOperation implements OperationLogger.
func (l *ConsoleLogger) LogOperation(_ context.Context, operation string, entityType string, opID string, duration time.Duration, err error) {
	level := LogLevelInfo
	if err != nil {
		level = LogLevelError
	}

	if l.shouldLog(level) {
		fmt.Printf("[%s] %s on %s | Op: %s | Duration: %v | Error: %v\n",
			level, operation, entityType, opID, duration, err)
	}
}

func (l *ConsoleLogger) shouldLog(level LogLevel) bool {
	levels := map[LogLevel]int{
		LogLevelDebug: 0,
		LogLevelInfo:  1,
		LogLevelWarn:  2,
		LogLevelError: 3,
	}
	return levels[level] >= levels[l.MinLevel]
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger creates a no-op logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogOperation implements OperationLogger.
func (l *NoOpLogger) LogOperation(context.Context, string, string, string, time.Duration, error) {
	// No-op
}
