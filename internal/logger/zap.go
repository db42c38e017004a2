package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

const defaultZapLevel = zapcore.DebugLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func newEncoder(encoding string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if encoding == JSONEncoding {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(level zapcore.Level, encoding string, w io.Writer) zapcore.Core {
	return zapcore.NewCore(newEncoder(encoding), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
}

// New builds a logger writing to stdout.
func New(level, encoding string) *Logger {
	return NewWithWriter(level, encoding, zapcore.Lock(os.Stdout))
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(level, encoding string, w io.Writer) *Logger {
	return &Logger{
		SugaredLogger: zap.New(newCore(toZapLevel(level), encoding, w)).Sugar(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
