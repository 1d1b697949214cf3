package utils

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds the structured logger shared by the client and the
// sandbox. format is "json" or "text"; unknown levels fall back to info.
func NewLogger(level, format string) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// DiscardLogger swallows everything; used where no logger is configured.
func DiscardLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
