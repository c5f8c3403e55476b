// Structured logging for the Arduino emulator
//
// Provides leveled, prefixed loggers with structured fields and
// text or JSON output. Every component (scheduler, api, serial bridge)
// obtains its own logger via GetLogger so that output can be filtered
// by prefix.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota

	// INFO level for general informational messages
	INFO

	// WARN level for warning messages
	WARN

	// ERROR level for error messages
	ERROR
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the string representation of the log level
func (l LogLevel) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel parses a string into a LogLevel. Unknown names map to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

// OutputFormat specifies the output format for log messages
type OutputFormat int

const (
	// FormatText outputs human-readable text format
	FormatText OutputFormat = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured logging fields
type Fields map[string]interface{}

// config is shared by a logger and every logger derived from it with
// WithPrefix, so that SetLevel on the root affects all components.
type config struct {
	mu         sync.Mutex
	writer     io.Writer
	level      LogLevel
	timeFormat string
	colorize   bool
	outFormat  OutputFormat
	caller     bool
}

// Logger writes leveled messages for one component
type Logger struct {
	prefix string
	cfg    *config
	fields Fields
}

// Entry is a pending log line carrying structured fields
type Entry struct {
	logger *Logger
	fields Fields
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger

	ansiColors = map[LogLevel]string{
		DEBUG: "\x1b[36m",
		INFO:  "\x1b[32m",
		WARN:  "\x1b[33m",
		ERROR: "\x1b[31m",
	}
	ansiReset = "\x1b[0m"
)

// New creates a new logger with the given prefix writing to stderr
func New(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		cfg: &config{
			writer:     os.Stderr,
			level:      INFO,
			timeFormat: "2006-01-02 15:04:05.000",
			colorize:   os.Getenv("NO_COLOR") == "",
			outFormat:  FormatText,
		},
	}
}

// Prefix returns the component name of the logger
func (l *Logger) Prefix() string { return l.prefix }

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.cfg.mu.Lock()
	l.cfg.level = level
	l.cfg.mu.Unlock()
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.cfg.mu.Lock()
	defer l.cfg.mu.Unlock()
	return l.cfg.level
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.GetLevel()
}

// SetWriter sets the output writer (e.g., for testing)
func (l *Logger) SetWriter(w io.Writer) {
	l.cfg.mu.Lock()
	l.cfg.writer = w
	l.cfg.mu.Unlock()
}

// SetTimeFormat sets the time format string
func (l *Logger) SetTimeFormat(format string) {
	l.cfg.mu.Lock()
	l.cfg.timeFormat = format
	l.cfg.mu.Unlock()
}

// SetColorize enables or disables colorized prefixes
func (l *Logger) SetColorize(enable bool) {
	l.cfg.mu.Lock()
	l.cfg.colorize = enable
	l.cfg.mu.Unlock()
}

// SetFormat sets the output format (FormatText or FormatJSON)
func (l *Logger) SetFormat(format OutputFormat) {
	l.cfg.mu.Lock()
	l.cfg.outFormat = format
	l.cfg.mu.Unlock()
}

// SetCaller enables or disables caller info in log output
func (l *Logger) SetCaller(enable bool) {
	l.cfg.mu.Lock()
	l.cfg.caller = enable
	l.cfg.mu.Unlock()
}

// WithPrefix returns a logger for another component sharing this
// logger's output configuration
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{prefix: prefix, cfg: l.cfg, fields: l.fields}
}

// WithField returns an Entry with the given field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithFields returns an Entry with the given fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithError returns an Entry with the error field set
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", errString(err))
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

// JSONLogEntry is the structure for JSON formatted log entries
type JSONLogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger"`
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func callerAt(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (l *Logger) mergeFields(extra Fields) Fields {
	if len(l.fields) == 0 {
		return extra
	}
	merged := make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// emit is the single write path. skip counts frames between the public
// method and emit so that caller info points at user code.
func (l *Logger) emit(level LogLevel, msg string, fields Fields, skip int) {
	c := l.cfg
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < c.level {
		return
	}

	fields = l.mergeFields(fields)
	now := time.Now()
	caller := ""
	if c.caller {
		caller = callerAt(skip + 1)
	}

	if c.outFormat == FormatJSON {
		entry := JSONLogEntry{
			Timestamp: now.Format(time.RFC3339Nano),
			Level:     level.String(),
			Logger:    l.prefix,
			Message:   msg,
			Caller:    caller,
		}
		if len(fields) > 0 {
			entry.Fields = fields
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(c.writer, `{"error":"failed to marshal log entry: %v"}`+"\n", err)
			return
		}
		c.writer.Write(append(data, '\n'))
		return
	}

	var sb strings.Builder
	sb.WriteString(now.Format(c.timeFormat))
	fmt.Fprintf(&sb, " [%-5s] ", level.String())
	if c.colorize {
		sb.WriteString(ansiColors[level])
	}
	sb.WriteString(l.prefix)
	if c.colorize {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	if caller != "" {
		sb.WriteString(" (")
		sb.WriteString(caller)
		sb.WriteString(")")
	}
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, fields[k])
		}
		sb.WriteString("}")
	}
	sb.WriteString("\n")
	io.WriteString(c.writer, sb.String())
}

func sprintf(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.emit(DEBUG, sprintf(msg, args), nil, 2)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...interface{}) {
	l.emit(INFO, sprintf(msg, args), nil, 2)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.emit(WARN, sprintf(msg, args), nil, 2)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...interface{}) {
	l.emit(ERROR, sprintf(msg, args), nil, 2)
}

// WithField adds a field to the entry
func (e *Entry) WithField(key string, value interface{}) *Entry {
	return e.WithFields(Fields{key: value})
}

// WithFields adds multiple fields to the entry
func (e *Entry) WithFields(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{logger: e.logger, fields: merged}
}

// WithError adds an error field to the entry
func (e *Entry) WithError(err error) *Entry {
	return e.WithField("error", errString(err))
}

// Debug logs at DEBUG level with fields
func (e *Entry) Debug(msg string, args ...interface{}) {
	e.logger.emit(DEBUG, sprintf(msg, args), e.fields, 2)
}

// Info logs at INFO level with fields
func (e *Entry) Info(msg string, args ...interface{}) {
	e.logger.emit(INFO, sprintf(msg, args), e.fields, 2)
}

// Warn logs at WARN level with fields
func (e *Entry) Warn(msg string, args ...interface{}) {
	e.logger.emit(WARN, sprintf(msg, args), e.fields, 2)
}

// Error logs at ERROR level with fields
func (e *Entry) Error(msg string, args ...interface{}) {
	e.logger.emit(ERROR, sprintf(msg, args), e.fields, 2)
}

// SetDefaultLogger replaces the root logger used by GetLogger
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// Default returns the root logger
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("emulator")
	}
	return defaultLogger
}

// GetLogger returns a component logger derived from the root logger
func GetLogger(prefix string) *Logger {
	return Default().WithPrefix(prefix)
}

// Info logs at INFO level using the root logger
func Info(msg string, args ...interface{}) {
	Default().emit(INFO, sprintf(msg, args), nil, 2)
}

// Warn logs at WARN level using the root logger
func Warn(msg string, args ...interface{}) {
	Default().emit(WARN, sprintf(msg, args), nil, 2)
}

// Error logs at ERROR level using the root logger
func Error(msg string, args ...interface{}) {
	Default().emit(ERROR, sprintf(msg, args), nil, 2)
}

func init() {
	root := New("emulator")
	ConfigureFromEnv(root)
	defaultLogger = root
}

// ConfigureFromEnv applies environment-based configuration to the logger.
// Environment variables:
//   - EMULATOR_LOG_LEVEL: DEBUG, INFO, WARN, ERROR
//   - EMULATOR_LOG_FORMAT: text, json
//   - EMULATOR_LOG_CALLER: any non-empty value enables caller info
//   - NO_COLOR: any non-empty value disables colors
func ConfigureFromEnv(l *Logger) {
	if s := os.Getenv("EMULATOR_LOG_LEVEL"); s != "" {
		l.SetLevel(ParseLevel(s))
	}
	if s := os.Getenv("EMULATOR_LOG_FORMAT"); s != "" {
		l.SetFormat(ParseFormat(s))
	}
	if os.Getenv("EMULATOR_LOG_CALLER") != "" {
		l.SetCaller(true)
	}
	if os.Getenv("NO_COLOR") != "" {
		l.SetColorize(false)
	}
}
