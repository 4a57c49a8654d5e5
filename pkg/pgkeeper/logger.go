package pgkeeper

// Logger provides a pluggable logging interface for connection lifecycle
// events. Implementations must never be handed secrets; pgkeeper logs
// hosts, users and attempt counts, never passwords or tokens.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})

	// Error logs error messages.
	Error(format string, args ...interface{})
}

// nopLogger discards everything. The default when no Logger is configured.
type nopLogger struct{}

func (nopLogger) Verbose(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})   {}
