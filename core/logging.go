package core

// Logger is the application-wide logging interface.
// Implementations may inspect args for an auth.Principal to attribute
// log entries to the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
