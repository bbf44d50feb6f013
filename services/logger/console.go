package logsvc

import (
	"log"

	"github.com/campusgate/campusgate/core"
)

// ConsoleLogger is the DEV/TEST logger: plain std logging, no reporting.
type ConsoleLogger struct {
	std *log.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger) *ConsoleLogger {
	return &ConsoleLogger{std: std}
}

func (l ConsoleLogger) output(level, msg string, args []interface{}) {
	l.std.Printf("%s %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.output("DEBUG", msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.output("INFO", msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.output("WARN", msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.output("ERROR", msg, args) }

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.output("FATAL", msg, args)
	l.std.Fatal(msg)
}
