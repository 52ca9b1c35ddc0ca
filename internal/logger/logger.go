package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var defaultLogger *slog.Logger

// logFilePath determines the path for the application log file based on the XDG spec.
func logFilePath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	return filepath.Join(stateDir, "edutools", "app.log"), nil
}

// InitLogger initializes the default logger. It MUST be called once at startup.
// In TUI mode logs go only to the log file so they don't corrupt the screen;
// in CLI mode they also go to stderr.
func InitLogger(isTUI bool) {
	var writers []io.Writer

	if path, err := logFilePath(); err == nil {
		logDir := filepath.Dir(path)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			if file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
				writers = append(writers, file)
			} else {
				fmt.Fprintf(os.Stderr, "Error opening log file %s: %v. File logging disabled.\n", path, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error creating log directory %s: %v. File logging disabled.\n", logDir, err)
		}
	}

	if !isTUI {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		// All writers failed to initialize; fall back to stderr so logs aren't lost.
		w = os.Stderr
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	defaultLogger = slog.New(handler)
}

// SetLogger replaces the default logger instance. Intended for tests.
func SetLogger(l *slog.Logger) {
	defaultLogger = l
}

// checkLogger ensures the logger is initialized before use, preventing nil panics.
func checkLogger() {
	if defaultLogger == nil {
		InitLogger(false)
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	checkLogger()
	defaultLogger.Info(msg, args...)
}

// Infof logs a formatted informational message.
func Infof(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

// Error logs an error message.
func Error(msg string, args ...any) {
	checkLogger()
	defaultLogger.Error(msg, args...)
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Error(fmt.Sprintf(format, v...))
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	checkLogger()
	defaultLogger.Debug(msg, args...)
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Debug(fmt.Sprintf(format, v...))
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	checkLogger()
	defaultLogger.Warn(msg, args...)
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}
