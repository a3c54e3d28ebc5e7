package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jathurchan/guestprop/types"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// parseLogLevel maps a string to a LogLevel. Defaults to LevelInfo on unknown input.
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

type field struct {
	key   string
	value any
}

// StdLogger writes one line per entry through a standard library log.Logger:
//
//	[LEVEL] message component=hgcm client=3 origin=guest key=value
//
// Context fields keep the order they were added in; message pairs follow.
type StdLogger struct {
	out      *log.Logger
	fields   []field
	minLevel LogLevel
	exit     func(int)
}

// NewStdLogger returns a StdLogger writing to stderr.
func NewStdLogger(minLevelStr string) Logger {
	return NewStdLoggerWithWriter(os.Stderr, minLevelStr)
}

// NewStdLoggerWithWriter returns a StdLogger writing to w.
func NewStdLoggerWithWriter(w io.Writer, minLevelStr string) Logger {
	return &StdLogger{
		out:      log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		minLevel: parseLogLevel(minLevelStr),
		exit:     os.Exit,
	}
}

func (l *StdLogger) log(level LogLevel, msg string, kvs ...any) {
	if level < l.minLevel {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", levelNames[level], msg)
	for _, f := range l.fields {
		writePair(&b, f.key, f.value)
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			writePair(&b, key, kvs[i+1])
		}
	}
	l.out.Print(b.String())

	if level == LevelFatal {
		l.exit(1)
	}
}

// writePair renders key=value, quoting values that contain blanks or are empty.
func writePair(b *strings.Builder, key string, value any) {
	s := fmt.Sprint(value)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		s = fmt.Sprintf("%q", s)
	}
	fmt.Fprintf(b, " %s=%s", key, s)
}

func (l *StdLogger) Debugw(msg string, kvs ...any) { l.log(LevelDebug, msg, kvs...) }
func (l *StdLogger) Infow(msg string, kvs ...any)  { l.log(LevelInfo, msg, kvs...) }
func (l *StdLogger) Warnw(msg string, kvs ...any)  { l.log(LevelWarn, msg, kvs...) }
func (l *StdLogger) Errorw(msg string, kvs ...any) { l.log(LevelError, msg, kvs...) }
func (l *StdLogger) Fatalw(msg string, kvs ...any) { l.log(LevelFatal, msg, kvs...) }

// withFields returns a child logger. A key already in the context is
// overwritten in place so the output never repeats it.
func (l *StdLogger) withFields(extra ...field) *StdLogger {
	fields := make([]field, len(l.fields), len(l.fields)+len(extra))
	copy(fields, l.fields)
next:
	for _, e := range extra {
		for i := range fields {
			if fields[i].key == e.key {
				fields[i].value = e.value
				continue next
			}
		}
		fields = append(fields, e)
	}
	return &StdLogger{out: l.out, fields: fields, minLevel: l.minLevel, exit: l.exit}
}

// With adds key-value pairs to the logger's context.
func (l *StdLogger) With(kvs ...any) Logger {
	var extra []field
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			extra = append(extra, field{key, kvs[i+1]})
		}
	}
	return l.withFields(extra...)
}

// WithClientID scopes the logger to a guest client.
func (l *StdLogger) WithClientID(id types.ClientID) Logger {
	return l.withFields(field{"client", id})
}

// WithOrigin scopes the logger to the side (host or guest) a request came from.
func (l *StdLogger) WithOrigin(origin types.Origin) Logger {
	return l.withFields(field{"origin", origin})
}

// WithComponent labels entries with the emitting component.
func (l *StdLogger) WithComponent(name string) Logger {
	return l.withFields(field{"component", name})
}
