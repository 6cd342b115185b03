// Package logging provides the node shell's logging conventions: stdlib log
// with INFO:/WARN:/ERROR:/DEBUG: prefixes and a global debug gate.
package logging

import (
	"fmt"
	"log"
)

// DebugEnabled controls whether Debug() produces output.
// Set via --debug or DEBUG=1 environment variable.
var DebugEnabled bool

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}

// Logger is the capability core components log through. Hosts inject Std;
// tests inject a Recorder or Discard.
type Logger interface {
	Printf(format string, args ...any)
}

type stdLogger struct{}

func (stdLogger) Printf(format string, args ...any) { log.Printf(format, args...) }

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

var (
	// Std writes through the process-wide stdlib logger.
	Std Logger = stdLogger{}
	// Discard drops everything.
	Discard Logger = discardLogger{}
)

// Recorder keeps formatted messages in memory.
type Recorder struct {
	Messages []string
}

// Printf records the formatted message.
func (r *Recorder) Printf(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// OrStd returns l, or Std when l is nil.
func OrStd(l Logger) Logger {
	if l == nil {
		return Std
	}
	return l
}
