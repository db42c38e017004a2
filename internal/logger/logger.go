package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings accepted by New.
const (
	ConsoleEncoding = "console"
	JSONEncoding    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. The first call fixes level and
// encoding; later calls return the same instance.
func Get(level, encoding string) *Logger {
	once.Do(func() {
		globalLogger = New(level, encoding)
	})
	return globalLogger
}
