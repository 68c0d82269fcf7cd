package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	NONE
)

var (
	level     = INFO
	stdLogger = log.New(os.Stderr, "[housetree] ", log.LstdFlags)
	logFile   *os.File
)

// ParseLevel maps a level name to a LogLevel. Unknown names are an error.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "none", "off":
		return NONE, nil
	}
	return INFO, fmt.Errorf("logger: unknown level %q", s)
}

// Init sets the level and, when logfilePath is set, mirrors stderr output
// into that file (opened in append mode).
func Init(logfilePath string, levelStr string) error {
	l, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	level = l

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if logfilePath == "" {
		stdLogger.SetOutput(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(logfilePath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(logfilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	stdLogger.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// SetOutput redirects log output; used by tests.
func SetOutput(w io.Writer) { stdLogger.SetOutput(w) }

// SetLevel changes the level without touching the output.
func SetLevel(l LogLevel) { level = l }

// Close releases the log file opened by Init, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	stdLogger.SetOutput(os.Stderr)
	return err
}

func Debug(msg string, args ...any) {
	if level <= DEBUG {
		stdLogger.Printf("[DEBUG] "+msg, args...)
	}
}
func Info(msg string, args ...any) {
	if level <= INFO {
		stdLogger.Printf("[INFO] "+msg, args...)
	}
}
func Warn(msg string, args ...any) {
	if level <= WARN {
		stdLogger.Printf("[WARN] "+msg, args...)
	}
}
func Error(msg string, args ...any) {
	if level <= ERROR {
		stdLogger.Printf("[ERROR] "+msg, args...)
	}
}
