package logger

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

type ProgressProvider interface {
	GetDone() int
	GetTotal() int
}

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

type Logger struct {
	mu       sync.RWMutex
	progress ProgressProvider
	verbose  bool
	getColor func() bool
}

var defaultLogger = &Logger{}

func init() {
	log.SetFlags(0)
}

func SetVerbose(v bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.verbose = v
}

func SetColorGetter(fn func() bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.getColor = fn
}

func IsVerbose() bool {
	defaultLogger.mu.RLock()
	defer defaultLogger.mu.RUnlock()
	return defaultLogger.verbose
}

// SetProgressProvider adds a "done/total" column to every line, pass nil to
// remove it.
func SetProgressProvider(p ProgressProvider) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.progress = p
}

func formatTimestamp() string {
	return time.Now().Format("15:04:05")
}

func (l *Logger) isVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

func (l *Logger) useColor() bool {
	l.mu.RLock()
	fn := l.getColor
	l.mu.RUnlock()
	if fn == nil {
		return false
	}
	return fn()
}

func (l *Logger) getProgress() (done, total int, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.progress == nil {
		return 0, 0, false
	}
	return l.progress.GetDone(), l.progress.GetTotal(), true
}

func (l *Logger) log(level string, levelVal LogLevel, msg string) {
	if levelVal <= INFO && !l.isVerbose() {
		return
	}
	l.logForce(level, msg)
}

func (l *Logger) logForce(level string, msg string) {
	ts := formatTimestamp()
	line := fmt.Sprintf("[%s] %s %s", level, ts, msg)
	if done, total, ok := l.getProgress(); ok {
		line = fmt.Sprintf("[%s] %s %d/%d %s", level, ts, done, total, msg)
	}
	if l.useColor() {
		const darkGray = "\x1b[90m"
		const reset = "\x1b[0m"
		log.Print(darkGray + line + reset)
		return
	}
	log.Print(line)
}

func (l *Logger) Debug(msg string) {
	l.log("DBUG", DEBUG, msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log("DBUG", DEBUG, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(msg string) {
	l.log("INFO", INFO, msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log("INFO", INFO, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string) {
	l.log("WARN", WARN, msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log("WARN", WARN, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string) {
	l.log("ERRO", ERROR, msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log("ERRO", ERROR, fmt.Sprintf(format, args...))
}

func Debug(msg string) {
	defaultLogger.Debug(msg)
}

func Debugf(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

func Info(msg string) {
	defaultLogger.Info(msg)
}

func Infof(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

func Warn(msg string) {
	defaultLogger.Warn(msg)
}

func Warnf(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

func Error(msg string) {
	defaultLogger.Error(msg)
}

func Errorf(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

func LogHTTP(path string, statusCode int, logAll bool) {
	if !logAll && statusCode == 200 {
		return
	}
	msg := path + " -> HTTP " + strconv.Itoa(statusCode)
	defaultLogger.log("INFO", INFO, msg)
}

// LogFetchArrival always prints, one line per city response. start and end
// are the requested dates (YYYY-MM-DD).
func LogFetchArrival(city, start, end string, days, statusCode int, bytesRead int64, cached bool) {
	bytesStr := formatBytes(bytesRead)
	if bytesRead == 0 {
		bytesStr = "empty"
	}
	source := "HTTP " + strconv.Itoa(statusCode)
	if cached {
		source = "cache"
	}

	var msg string
	if start != "" && end != "" {
		msg = fmt.Sprintf("%s [%s ~ %s] %s days %s -> %s", city, start, end, formatDays(days), bytesStr, source)
	} else {
		msg = fmt.Sprintf("%s %s days %s -> %s", city, formatDays(days), bytesStr, source)
	}
	defaultLogger.logForce("INFO", msg)
}

func formatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	} else {
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
	}
}

func formatDays(days int) string {
	if days < 365 {
		return strconv.Itoa(days)
	}
	years := days / 365
	rest := days % 365
	if rest == 0 {
		return strconv.Itoa(years) + "y"
	}
	return strconv.Itoa(years) + "y" + strconv.Itoa(rest) + "d"
}
