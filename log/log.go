// Package log is the leveled logger used by xmalloc packages.
// Applications can route allocator logs into their own logging by
// supplying a Logger to SetLogger.
package log

import "io"
import "os"
import "fmt"
import "time"
import "strings"

import "github.com/bnclabs/xmalloc/lib"

func init() {
	SetLogger(nil, nil)
}

// Logger interface for allocator logging.
type Logger interface {
	SetLogLevel(string)
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Printlf(loglevel LogLevel, format string, v ...interface{})
}

// LogLevel defines allocator log level.
type LogLevel int

const (
	logLevelIgnore LogLevel = iota + 1
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelDebug
)

var log Logger

// Defaultsettings for the default logger.
//
// "log.level" (string, default: "info")
//
//	One of "ignore", "error", "warn", "info", "debug".
//
// "log.file" (string, default: "")
//
//	Append log lines to this file, empty logs to os.Stdout.
func Defaultsettings() lib.Settings {
	return lib.Settings{
		"log.level": "info",
		"log.file":  "",
	}
}

// SetLogger to integrate allocator logging with application logging.
// If logger is nil, a default logger is created from setts.
func SetLogger(logger Logger, setts map[string]interface{}) Logger {
	if logger != nil {
		log = logger
		return log
	}

	setts = make(lib.Settings).Mixin(Defaultsettings(), setts)
	level := string2logLevel(lib.Settings(setts).String("log.level"))
	logfd := os.Stdout
	if logfile := lib.Settings(setts).String("log.file"); logfile != "" {
		flags := os.O_RDWR | os.O_APPEND | os.O_CREATE
		fd, err := os.OpenFile(logfile, flags, 0660)
		if err != nil {
			panic(err)
		}
		logfd = fd
	}
	log = &defaultLogger{level: level, output: logfd}
	return log
}

// defaultLogger writes timestamped lines to output, lines above level
// are dropped.
type defaultLogger struct {
	level  LogLevel
	output io.Writer
}

func (l *defaultLogger) SetLogLevel(level string) {
	l.level = string2logLevel(level)
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

func (l *defaultLogger) Debugf(format string, v ...interface{}) {
	l.Printlf(logLevelDebug, format, v...)
}

func (l *defaultLogger) Printlf(level LogLevel, format string, v ...interface{}) {
	if level <= l.level {
		ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
		fmt.Fprintf(l.output, ts+" ["+level.String()+"] "+format, v...)
	}
}

func (l LogLevel) String() string {
	switch l {
	case logLevelIgnore:
		return "Ignor"
	case logLevelError:
		return "Error"
	case logLevelWarn:
		return "Warng"
	case logLevelInfo:
		return "Infom"
	case logLevelDebug:
		return "Debug"
	}
	panic("unexpected log level")
}

func string2logLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "ignore":
		return logLevelIgnore
	case "error":
		return logLevelError
	case "warn":
		return logLevelWarn
	case "info":
		return logLevelInfo
	case "debug":
		return logLevelDebug
	}
	panic(fmt.Errorf("unexpected log level %q", s))
}

// Errorf log at error level through the current logger.
func Errorf(format string, v ...interface{}) {
	log.Printlf(logLevelError, format, v...)
}

// Warnf log at warn level through the current logger.
func Warnf(format string, v ...interface{}) {
	log.Printlf(logLevelWarn, format, v...)
}

// Infof log at info level through the current logger.
func Infof(format string, v ...interface{}) {
	log.Printlf(logLevelInfo, format, v...)
}

// Debugf log at debug level through the current logger.
func Debugf(format string, v ...interface{}) {
	log.Printlf(logLevelDebug, format, v...)
}
