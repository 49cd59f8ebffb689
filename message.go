package nvrhi

import (
	"fmt"
	"log/slog"
)

// Severity classifies a message reported through a MessageCallback.
type Severity int

const (
	// SeverityInfo is informational output with no action required.
	SeverityInfo Severity = iota
	// SeverityWarning indicates a suspicious but recoverable condition.
	SeverityWarning
	// SeverityError indicates API misuse. The operation that triggered the
	// message did not take effect; continuing is undefined by contract.
	SeverityError
	// SeverityFatal indicates a condition the library cannot recover from.
	SeverityFatal
)

// String returns the string representation of a Severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	case SeverityFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// MessageCallback receives validation and misuse reports from the library.
//
// The library reports state-machine misuse (opening an already-open command
// list, recording into a closed one, referencing untracked state) through
// this single-method boundary rather than error returns: the recording API
// is performance-oriented and its contract is "undefined outcome if the
// report is ignored". No structured error codes cross this boundary.
//
// Implementations must be safe for concurrent use: distinct command lists
// recorded from distinct goroutines share the device-level callback.
type MessageCallback interface {
	// Message delivers one report. The text is a complete sentence with no
	// trailing newline.
	Message(severity Severity, text string)
}

// logMessageCallback is the default MessageCallback. It forwards every
// report to the package logger at the matching slog level.
type logMessageCallback struct{}

func (logMessageCallback) Message(severity Severity, text string) {
	l := Logger()
	switch severity {
	case SeverityInfo:
		l.Info(text)
	case SeverityWarning:
		l.Warn(text)
	default:
		l.Error(text, slog.String("severity", severity.String()))
	}
}

// DefaultMessageCallback returns the callback used when DeviceConfig leaves
// MessageCallback nil: reports are forwarded to the package logger.
func DefaultMessageCallback() MessageCallback {
	return logMessageCallback{}
}

// abortCallback forwards every report and panics on SeverityFatal. Installed
// when DeviceConfig.AbortOnFatal is set.
type abortCallback struct {
	inner MessageCallback
}

func (c abortCallback) Message(severity Severity, text string) {
	c.inner.Message(severity, text)
	if severity == SeverityFatal {
		panic("nvrhi: fatal: " + text)
	}
}
