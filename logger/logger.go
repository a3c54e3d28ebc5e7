package logger

import "github.com/jathurchan/guestprop/types"

// Logger is the structured logging interface used by every component of the
// property service. Key/value pairs are passed as alternating arguments.
type Logger interface {
	// Debugw logs a debug-level message with optional structured context.
	Debugw(msg string, keysAndValues ...any)

	// Infow logs an info-level message with optional structured context.
	Infow(msg string, keysAndValues ...any)

	// Warnw logs a warning-level message with optional structured context.
	Warnw(msg string, keysAndValues ...any)

	// Errorw logs an error-level message with optional structured context.
	Errorw(msg string, keysAndValues ...any)

	// Fatalw logs a fatal-level message with optional structured context and then terminates the application.
	Fatalw(msg string, keysAndValues ...any)

	// With adds arbitrary key-value pairs to the logger's context.
	With(keysAndValues ...any) Logger

	// WithClientID adds the identity of a guest client to the logger's context.
	WithClientID(id types.ClientID) Logger

	// WithOrigin adds the request origin (host or guest) to the logger's context.
	WithOrigin(origin types.Origin) Logger

	// WithComponent adds a component label (e.g., "relay", "hgcm") to categorize log output.
	WithComponent(name string) Logger
}
