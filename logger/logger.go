// Package logger provides leveled logging for the sx-ui panel, keeping a
// bounded in-memory buffer of recent entries for the API.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/op/go-logging"
)

var (
	logger    *logging.Logger
	bufferMu  sync.Mutex
	logBuffer []string
)

const maxBufferedLogs = 10240

func init() {
	InitLogger(logging.INFO)
}

// InitLogger configures the underlying go-logging backend at the given level.
func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger("sx-ui")
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:2006/01/02 15:04:05} %{level} - %{message}`)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	backendLeveled := logging.AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(level, "sx-ui")
	newLogger.SetBackend(backendLeveled)

	logger = newLogger
}

// Debug logs a debug-level message.
func Debug(args ...any) {
	logger.Debug(args...)
	addToBuffer("DEBUG", fmt.Sprint(args...))
}

// Debugf logs a formatted debug-level message.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
	addToBuffer("DEBUG", fmt.Sprintf(format, args...))
}

// Info logs an info-level message.
func Info(args ...any) {
	logger.Info(args...)
	addToBuffer("INFO", fmt.Sprint(args...))
}

// Infof logs a formatted info-level message.
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
	addToBuffer("INFO", fmt.Sprintf(format, args...))
}

// Warning logs a warning-level message.
func Warning(args ...any) {
	logger.Warning(args...)
	addToBuffer("WARNING", fmt.Sprint(args...))
}

// Warningf logs a formatted warning-level message.
func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
	addToBuffer("WARNING", fmt.Sprintf(format, args...))
}

// Error logs an error-level message.
func Error(args ...any) {
	logger.Error(args...)
	addToBuffer("ERROR", fmt.Sprint(args...))
}

// Errorf logs a formatted error-level message.
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
	addToBuffer("ERROR", fmt.Sprintf(format, args...))
}

func addToBuffer(level string, message string) {
	bufferMu.Lock()
	defer bufferMu.Unlock()

	if len(logBuffer) >= maxBufferedLogs {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, fmt.Sprintf("%s %s - %s",
		time.Now().Format("2006/01/02 15:04:05"), level, message))
}

// GetLogs returns up to count of the most recent buffered log lines.
func GetLogs(count int) []string {
	bufferMu.Lock()
	defer bufferMu.Unlock()

	if count > len(logBuffer) {
		count = len(logBuffer)
	}
	return append([]string{}, logBuffer[len(logBuffer)-count:]...)
}
