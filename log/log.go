// Package log implements a small leveled logger for lfmalloc's slow
// paths (superblock install/release, OOM, debug-build invariant
// failures). The allocate/free hot path never logs.
package log

import "io"
import "os"
import "fmt"
import "time"
import "strings"
import "sync/atomic"

func init() {
	setts := map[string]interface{}{
		"log.level": "info",
		"log.file":  "",
	}
	SetLogger(nil, setts)
}

// Logger interface for lfmalloc logging. Applications can supply their
// own implementation or fall back to the defaultLogger.
type Logger interface {
	SetLogLevel(string)
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
	Printlf(loglevel LogLevel, format string, v ...interface{})
}

// LogLevel defines allocator log level.
type LogLevel int

const (
	logLevelIgnore LogLevel = iota + 1
	logLevelFatal
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelVerbose
	logLevelDebug
	logLevelTrace
)

var log Logger // object used by lfmalloc for logging.

// enabled gates whether slow-path call sites even format a log line.
// Off by default: an allocator should be silent unless asked. Toggle
// with Enable/Disable.
var enabled int64

// Enable allocator logging. Off by default so a production process
// embedding lfmalloc isn't surprised by superblock-churn chatter.
func Enable() { atomic.StoreInt64(&enabled, 1) }

// Disable allocator logging.
func Disable() { atomic.StoreInt64(&enabled, 0) }

// Enabled reports whether logging is currently on.
func Enabled() bool { return atomic.LoadInt64(&enabled) > 0 }

// SetLogger to integrate allocator logging with application logging.
// Importing this package initializes the logger with info-level logging
// to stdout.
func SetLogger(logger Logger, setts map[string]interface{}) Logger {
	if logger != nil {
		log = logger
		return log
	}

	var err error
	level := string2logLevel(setts["log.level"].(string))
	logfd := os.Stdout
	if logfile := setts["log.file"].(string); logfile != "" {
		logfd, err = os.OpenFile(logfile, os.O_RDWR|os.O_APPEND, 0660)
		if err != nil {
			if logfd, err = os.Create(logfile); err != nil {
				panic(err)
			}
		}
	}
	log = &defaultLogger{level: level, output: logfd}
	return log
}

// defaultLogger writes to os.Stdout at logLevelInfo unless overridden.
type defaultLogger struct {
	level  LogLevel
	output io.Writer
}

func (l *defaultLogger) SetLogLevel(level string) {
	l.level = string2logLevel(level)
}

func (l *defaultLogger) Fatalf(format string, v ...interface{}) {
	l.Printlf(logLevelFatal, format, v...)
}

func (l *defaultLogger) Errorf(format string, v ...interface{}) {
	l.Printlf(logLevelError, format, v...)
}

func (l *defaultLogger) Warnf(format string, v ...interface{}) {
	l.Printlf(logLevelWarn, format, v...)
}

func (l *defaultLogger) Infof(format string, v ...interface{}) {
	l.Printlf(logLevelInfo, format, v...)
}

func (l *defaultLogger) Verbosef(format string, v ...interface{}) {
	l.Printlf(logLevelVerbose, format, v...)
}

func (l *defaultLogger) Debugf(format string, v ...interface{}) {
	l.Printlf(logLevelDebug, format, v...)
}

func (l *defaultLogger) Tracef(format string, v ...interface{}) {
	l.Printlf(logLevelTrace, format, v...)
}

func (l *defaultLogger) Printlf(level LogLevel, format string, v ...interface{}) {
	if l.canlog(level) {
		ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
		fmt.Fprintf(l.output, ts+" ["+level.String()+"] "+format, v...)
	}
}

func (l *defaultLogger) canlog(level LogLevel) bool {
	return level <= l.level
}

func (l LogLevel) String() string {
	switch l {
	case logLevelIgnore:
		return "Ignor"
	case logLevelFatal:
		return "Fatal"
	case logLevelError:
		return "Error"
	case logLevelWarn:
		return "Warng"
	case logLevelInfo:
		return "Infom"
	case logLevelVerbose:
		return "Verbs"
	case logLevelDebug:
		return "Debug"
	case logLevelTrace:
		return "Trace"
	}
	panic("unexpected log level") // should never reach here
}

func string2logLevel(s string) LogLevel {
	s = strings.ToLower(s)
	switch s {
	case "ignore":
		return logLevelIgnore
	case "fatal":
		return logLevelFatal
	case "error":
		return logLevelError
	case "warn":
		return logLevelWarn
	case "info":
		return logLevelInfo
	case "verbose":
		return logLevelVerbose
	case "debug":
		return logLevelDebug
	case "trace":
		return logLevelTrace
	}
	panic("unexpected log level") // should never reach here
}

func Fatalf(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelFatal, format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelError, format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelWarn, format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelInfo, format, v...)
	}
}

func Verbosef(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelVerbose, format, v...)
	}
}

func Debugf(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelDebug, format, v...)
	}
}

func Tracef(format string, v ...interface{}) {
	if Enabled() {
		log.Printlf(logLevelTrace, format, v...)
	}
}
