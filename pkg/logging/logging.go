// Package logging provides the structured logging used by every daemon and
// library package in amfcore. It supports two execution modes with a single
// call-site API: direct output for the amfd/amfnd daemons, and a channel-fed
// mode for the amfadm interactive shell so log lines don't tear up readline's
// prompt redraws.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEntry is the structured log entry passed to the REPL consumer.
type LogEntry struct {
	Timestamp  time.Time
	Level      LogLevel
	Subsystem  string
	Message    string
	Err        error
	Attributes []slog.Attr
}

var (
	defaultLogger *slog.Logger
	replLogChan   chan LogEntry
	isReplMode    bool
)

const replChannelBufferSize = 2048

// Initcommon initializes the logger for either "repl" or "cli" mode. Should
// be called once at process startup.
func Initcommon(mode string, level LogLevel, output io.Writer, channelBufferSize int) <-chan LogEntry {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}

	var handler slog.Handler
	if mode == "repl" {
		isReplMode = true
		if channelBufferSize <= 0 {
			channelBufferSize = replChannelBufferSize
		}
		replLogChan = make(chan LogEntry, channelBufferSize)
		handler = slog.NewTextHandler(io.Discard, opts)
	} else {
		isReplMode = false
		handler = slog.NewTextHandler(output, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	if isReplMode {
		return replLogChan
	}
	return nil
}

// InitForCLI initializes direct-output logging, used by the amfd/amfnd daemons.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	Initcommon("cli", filterLevel, output, 0)
}

// InitForREPL initializes channel-fed logging, used by amfadm's interactive shell.
func InitForREPL(filterLevel LogLevel) <-chan LogEntry {
	return Initcommon("repl", filterLevel, os.Stderr, 0)
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	if !isReplMode {
		if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
			return
		}
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if isReplMode {
		if replLogChan != nil {
			entry := LogEntry{Timestamp: now, Level: level, Subsystem: subsystem, Message: msg, Err: err}
			select {
			case replLogChan <- entry:
			default:
				fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] REPL log channel full/closed. Dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			}
		} else {
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] REPL mode active but replLogChan is nil. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
			}
		}
		return
	}

	if defaultLogger == nil {
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] Logger not initialized. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		return
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("subsystem", subsystem))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// CloseREPLChannel closes the REPL log channel. Safe to call once during shutdown.
func CloseREPLChannel() {
	if replLogChan != nil {
		close(replLogChan)
	}
}

// AuditEvent is a structured audit record for administrative actions: admin-op
// invocations, CCB outcome resolution, implementer set/release.
type AuditEvent struct {
	Action    string
	Outcome   string // "success" or "failure"
	Actor     string
	Target    string
	Details   string
	Error     string
}

// Audit logs a structured audit event at INFO level with an [AUDIT] prefix so
// it is easily filterable by log aggregation.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 6)
	parts = append(parts, "action="+event.Action)
	parts = append(parts, "outcome="+event.Outcome)
	if event.Actor != "" {
		parts = append(parts, "actor="+event.Actor)
	}
	if event.Target != "" {
		parts = append(parts, "target="+event.Target)
	}
	if event.Details != "" {
		parts = append(parts, "details="+event.Details)
	}
	if event.Error != "" {
		parts = append(parts, "error="+event.Error)
	}
	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}
