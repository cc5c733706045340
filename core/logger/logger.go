package logger

// Logger is the leveled logging contract used across the engine. Components
// receive a Logger rather than constructing one so tests can silence output.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
