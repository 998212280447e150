// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance writing to stdout
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerWithOutput(logLevel, os.Getenv("ENVIRONMENT"), os.Stdout)
}

// NewLoggerWithOutput creates a logger for the given environment and writer.
// Production gets JSON lines, everything else gets coloured text.
func NewLoggerWithOutput(logLevel, environment string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}

// Discard returns a logger that drops everything, for tests and quiet CLI runs
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
