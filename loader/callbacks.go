package loader

import "time"

// Load phases reported through ProgressCallback.
const (
	// PhaseValidating covers archive classification and mapping checks
	PhaseValidating = "validating"

	// PhaseLoading covers chunk writes (and read-back verification)
	PhaseLoading = "loading"

	// PhaseComplete is reported once after the last core is loaded
	PhaseComplete = "complete"
)

// Progress contains information about an in-flight load. Passed to
// ProgressCallback as the load advances; each invocation carries the
// full state explicitly, so callbacks need no captured counters.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// CurrentCore is the number of logical cores loaded so far
	CurrentCore int

	// TotalCores is the number of logical cores to load
	TotalCores int

	// BytesWritten is the total payload written so far
	BytesWritten int

	// ElapsedTime is the time since the load started
	ElapsedTime time.Duration
}

// ProgressCallback is called as the load advances. Implementations
// should return quickly to avoid stalling device writes.
type ProgressCallback func(Progress)

// Logger is an optional logging interface. It allows integration with
// any logging framework.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	l := loader.New(device, loader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
