package internal

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logMu  sync.RWMutex
	atom   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger(zapcore.Lock(os.Stderr))
)

func newLogger(out zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, atom)
	return zap.New(core)
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	atom.SetLevel(level.zapLevel())
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output to the given file. The interactive chat
// uses this so log lines don't tear through the terminal UI. The returned
// function restores stderr and closes the file.
func SetLogOutput(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	logMu.Lock()
	prev := logger
	logger = newLogger(zapcore.Lock(f))
	logMu.Unlock()

	return func() error {
		logMu.Lock()
		_ = logger.Sync()
		logger = prev
		logMu.Unlock()
		return f.Close()
	}, nil
}

// Logger returns the structured logger for callers that want typed fields.
func Logger() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// SyncLogger flushes buffered log entries.
func SyncLogger() {
	_ = Logger().Sync()
}

func logf(level zapcore.Level, format string, args ...interface{}) {
	if !atom.Enabled(level) {
		return
	}
	if ce := Logger().Check(level, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logf(zapcore.ErrorLevel, format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logf(zapcore.WarnLevel, format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logf(zapcore.InfoLevel, format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logf(zapcore.DebugLevel, format, args...)
}
