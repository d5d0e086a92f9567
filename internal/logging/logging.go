package logging

import (
	"github.com/pion/logging"
)

var loggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a leveled logger for scope. Levels follow the PION_LOG_*
// environment variables.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}

// Factory returns the process wide logger factory.
func Factory() logging.LoggerFactory {
	return loggerFactory
}
