// Package logging builds the process-wide logrus logger from the
// environment variables spec.md §6 reserves for the logging
// collaborator: LOG_LEVEL, LOG_ENABLED, LOG_FILEPATH.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger configured from the environment.
//
//   - LOG_LEVEL: one of DEBUG, INFO, WARNING, ERROR, CRITICAL (default INFO)
//   - LOG_ENABLED: "false" disables all output (default enabled)
//   - LOG_FILEPATH: if set, log lines are written there instead of stderr
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if os.Getenv("LOG_ENABLED") == "false" {
		logger.SetOutput(io.Discard)
		return logger
	}

	logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	if path := os.Getenv("LOG_FILEPATH"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warnf("could not open log file %q, falling back to stderr", path)
		} else {
			logger.SetOutput(f)
		}
	}

	return logger
}

func parseLevel(raw string) logrus.Level {
	switch raw {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO", "":
		return logrus.InfoLevel
	case "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	case "CRITICAL":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
