package logger

import (
	"log"
	"strings"
	"sync/atomic"
)

const (
	fatalLabel = "[FATAL] "
	errorLabel = "[ERROR] "
	warnLabel  = "[WARN ] "
	infoLabel  = "[INFO ] "
	debugLabel = "[DEBUG] "
)

const (
	levelDebug int32 = iota
	levelInfo
	levelWarn
	levelError
)

var threshold atomic.Int32

func init() {
	threshold.Store(levelInfo)
}

// SetLevel drops messages below the named level (debug, info, warn, error).
// It reports false and keeps the current level for an unknown name.
func SetLevel(name string) bool {
	var l int32
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		l = levelDebug
	case "info", "":
		l = levelInfo
	case "warn", "warning":
		l = levelWarn
	case "error":
		l = levelError
	default:
		return false
	}
	threshold.Store(l)
	return true
}

// mylog prepends the level string to log.Printf if level is enabled.
// Arguments are handled in the manner of [fmt.Printf].
func mylog(level int32, label string, format string, args ...interface{}) {
	if level < threshold.Load() {
		return
	}
	log.Printf(label+format, args...)
}

// Fatal calls [log.Fatalf], adding a fatal label.
// Arguments are handled in the manner of [fmt.Printf].
func Fatal(format string, args ...interface{}) {
	log.Fatalf(fatalLabel+format, args...)
}

// Error prints to the standard logger, adding an error label.
// Arguments are handled in the manner of [fmt.Printf].
func Error(format string, args ...interface{}) {
	mylog(levelError, errorLabel, format, args...)
}

// Warn prints to the standard logger, adding a warn label.
// Arguments are handled in the manner of [fmt.Printf].
func Warn(format string, args ...interface{}) {
	mylog(levelWarn, warnLabel, format, args...)
}

// Info prints to the standard logger, adding an info label.
// Arguments are handled in the manner of [fmt.Printf].
func Info(format string, args ...interface{}) {
	mylog(levelInfo, infoLabel, format, args...)
}

// Debug prints to the standard logger, adding a debug label.
// Arguments are handled in the manner of [fmt.Printf].
func Debug(format string, args ...interface{}) {
	mylog(levelDebug, debugLabel, format, args...)
}
