package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel parses a log level string
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Line is a single log record as shown in the UI log pane
type Line struct {
	Timestamp time.Time `json:"timestamp"`
	TimeStr   string    `json:"time"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogBroadcaster is an interface for broadcasting log lines
type LogBroadcaster interface {
	BroadcastLog(line Line)
}

// BusBroadcaster publishes log lines on the event bus
type BusBroadcaster struct {
	Bus *eventbus.Bus
}

// BroadcastLog implements LogBroadcaster
func (b BusBroadcaster) BroadcastLog(line Line) {
	if b.Bus == nil {
		return
	}
	b.Bus.Publish(eventbus.NewEvent(eventbus.EventLogLine).
		WithSource(line.Source).
		WithData("level", line.Level).
		WithData("time", line.TimeStr).
		WithData("message", line.Message))
}

// Logger is the main logger
type Logger struct {
	mu          sync.Mutex
	level       Level
	outputs     []io.Writer
	broadcaster LogBroadcaster
	source      string
}

// NewLogger creates a new logger
func NewLogger(level Level, outputs []io.Writer, source string) *Logger {
	return &Logger{
		level:   level,
		outputs: outputs,
		source:  source,
	}
}

// SetBroadcaster sets the log broadcaster
func (l *Logger) SetBroadcaster(b LogBroadcaster) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcaster = b
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, message string) {
	l.mu.Lock()
	if level < l.level {
		l.mu.Unlock()
		return
	}

	now := time.Now()
	timestamp := now.Format("2006-01-02 15:04:05")
	logMessage := fmt.Sprintf("[%s] %s: %s\n", timestamp, strings.ToUpper(level.String()), message)

	for _, output := range l.outputs {
		output.Write([]byte(logMessage))
	}
	b := l.broadcaster
	l.mu.Unlock()

	// Subscribers may log themselves
	if b != nil {
		b.BroadcastLog(Line{
			Timestamp: now,
			TimeStr:   now.Format("15:04:05"),
			Source:    l.source,
			Level:     level.String(),
			Message:   message,
		})
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if len(args) == 0 {
		l.log(DEBUG, format)
	} else {
		l.log(DEBUG, fmt.Sprintf(format, args...))
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if len(args) == 0 {
		l.log(INFO, format)
	} else {
		l.log(INFO, fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if len(args) == 0 {
		l.log(WARN, format)
	} else {
		l.log(WARN, fmt.Sprintf(format, args...))
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if len(args) == 0 {
		l.log(ERROR, format)
	} else {
		l.log(ERROR, fmt.Sprintf(format, args...))
	}
}

// FileOptions controls rotation of the log file
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// CreateLogFile returns a rotating writer for logPath
func CreateLogFile(logPath string, opts FileOptions) (io.WriteCloser, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}, nil
}

// Global logger instance
var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		// Return a default logger if not initialized
		return NewLogger(INFO, []io.Writer{os.Stderr}, "weaver")
	}
	return globalLogger
}

// Global logging functions for convenience
func Info(format string, args ...interface{}) {
	GetGlobalLogger().Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	GetGlobalLogger().Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	GetGlobalLogger().Error(format, args...)
}

func Debug(format string, args ...interface{}) {
	GetGlobalLogger().Debug(format, args...)
}
