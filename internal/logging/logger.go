package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger writes levelled key/value log lines for one component of the
// verification service. Debug output is gated on UHAKIKI_DEBUG so the
// per-request pipeline tracing stays quiet in production.
type Logger struct {
	prefix string
	debug  bool
	logger *log.Logger
}

// NewLogger creates a logger for the named component.
func NewLogger(component string) *Logger {
	return &Logger{
		prefix: component,
		debug:  os.Getenv("UHAKIKI_DEBUG") != "",
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", component), log.LstdFlags),
	}
}

// WithPrefix returns a child logger for a subcomponent, e.g. "server.auth".
func (l *Logger) WithPrefix(sub string) *Logger {
	child := fmt.Sprintf("%s.%s", l.prefix, sub)
	return &Logger{
		prefix: child,
		debug:  l.debug,
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", child), log.LstdFlags),
	}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs when debug logging is on.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	kvStr := ""
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			kvStr += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, kvStr)
}
