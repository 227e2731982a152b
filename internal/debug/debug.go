// Package debug provides component-tagged logging for pagetour.
//
// Error, Warn and Info lines are always written. Log and Trace lines are
// written only when debug mode is on (PAGETOUR_DEBUG set, or Enable called).
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// EnvVar enables debug logging when set to any non-empty value.
const EnvVar = "PAGETOUR_DEBUG"

var (
	enabled atomic.Bool

	logFile     *os.File
	logFileMu   sync.Mutex
	logFilePath string
	baseOutput  io.Writer = os.Stderr

	logger *log.Logger
)

func init() {
	if os.Getenv(EnvVar) != "" {
		Enable()
	}
	logger = log.New(os.Stderr, "", log.LstdFlags)
}

// Enable turns on debug logging.
func Enable() {
	enabled.Store(true)
}

// Disable turns off debug logging.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	return enabled.Load()
}

// SetOutput replaces the base writer (stderr by default). A configured log
// file keeps receiving a copy.
func SetOutput(w io.Writer) {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	baseOutput = w
	if logFile != nil {
		logger.SetOutput(io.MultiWriter(baseOutput, logFile))
		return
	}
	logger.SetOutput(baseOutput)
}

// SetLogFile tees log output into name under the user cache directory.
// An empty name stops writing to a file.
func SetLogFile(name string) error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if name == "" {
		logger.SetOutput(baseOutput)
		logFilePath = ""
		return nil
	}

	logDir := logDirectory()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath = filepath.Join(logDir, name)
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	logger.SetOutput(io.MultiWriter(baseOutput, f))

	return nil
}

// GetLogFilePath returns the current log file path, or empty if not set.
func GetLogFilePath() string {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	return logFilePath
}

// Close closes the log file if open.
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		logger.SetOutput(baseOutput)
	}
}

func logDirectory() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "pagetour", "logs")
}

// Log logs a debug message if debug mode is enabled.
// Format: [DEBUG] [component] message
func Log(component, format string, args ...interface{}) {
	if !enabled.Load() {
		return
	}
	logger.Printf("[DEBUG] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Trace logs a high-precision timestamped line when debug is enabled.
// Use for per-event noise such as pointer moves.
func Trace(component, format string, args ...interface{}) {
	if !enabled.Load() {
		return
	}
	ts := time.Now().Format("15:04:05.000000")
	logger.Printf("[TRACE] [%s] [%s] %s", ts, component, fmt.Sprintf(format, args...))
}

// Error logs an error message regardless of debug mode.
func Error(component, format string, args ...interface{}) {
	logger.Printf("[ERROR] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Warn logs a warning message regardless of debug mode.
func Warn(component, format string, args ...interface{}) {
	logger.Printf("[WARN] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Info logs an info message regardless of debug mode.
func Info(component, format string, args ...interface{}) {
	logger.Printf("[INFO] [%s] %s", component, fmt.Sprintf(format, args...))
}

// Logger binds a component name so packages don't repeat it per call.
type Logger struct {
	Component string
}

// For returns a Logger for component.
func For(component string) Logger {
	return Logger{Component: component}
}

func (l Logger) Log(format string, args ...interface{})   { Log(l.Component, format, args...) }
func (l Logger) Trace(format string, args ...interface{}) { Trace(l.Component, format, args...) }
func (l Logger) Info(format string, args ...interface{})  { Info(l.Component, format, args...) }
func (l Logger) Warn(format string, args ...interface{})  { Warn(l.Component, format, args...) }
func (l Logger) Error(format string, args ...interface{}) { Error(l.Component, format, args...) }
