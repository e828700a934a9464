package logger

import (
	"fmt"
	"strconv"
	"strings"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = [...]string{
	LevelError: "error",
	LevelWarn:  "warn",
	LevelInfo:  "info",
	LevelDebug: "debug",
	LevelTrace: "trace",
}

func (l Level) MarshalText() (text []byte, err error) {
	if l < 0 || int(l) >= len(levelNames) {
		return nil, fmt.Errorf("unexpected logger.Level: %d", l)
	}
	return []byte(levelNames[l]), nil
}

func (l Level) String() string {
	text, err := l.MarshalText()
	if err != nil {
		return strconv.FormatInt(int64(l), 10)
	}
	return string(text)
}

func (l *Level) UnmarshalText(text []byte) error {
	for i, name := range levelNames {
		if strings.EqualFold(string(text), name) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown log level: %s", string(text))
}

type Logger interface {
	With(field string, value any) Logger
	WithFields(fields map[string]any) Logger
	Logf(level Level, format string, args ...any)
	Log(level Level, args ...any)
	Errorf(format string, args ...any)
	Error(args ...any)
	Warnf(format string, args ...any)
	Warn(args ...any)
	Infof(format string, args ...any)
	Info(args ...any)
	Debugf(format string, args ...any)
	Debug(args ...any)
	Tracef(format string, args ...any)
	Trace(args ...any)
}

// Nop discards everything. It is used wherever a caller didn't provide a logger
var Nop Logger = nop{}

type nop struct{}

func (nop) With(string, any) Logger          { return nop{} }
func (nop) WithFields(map[string]any) Logger { return nop{} }
func (nop) Logf(Level, string, ...any)       {}
func (nop) Log(Level, ...any)                {}
func (nop) Errorf(string, ...any)            {}
func (nop) Error(...any)                     {}
func (nop) Warnf(string, ...any)             {}
func (nop) Warn(...any)                      {}
func (nop) Infof(string, ...any)             {}
func (nop) Info(...any)                      {}
func (nop) Debugf(string, ...any)            {}
func (nop) Debug(...any)                     {}
func (nop) Tracef(string, ...any)            {}
func (nop) Trace(...any)                     {}

// OrNop returns l or Nop if l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}
