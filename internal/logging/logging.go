// Package logging builds the logrus logger shared by the client and the
// development backend.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/config"
)

// New returns a logger configured from cfg. Unknown levels fall back to info.
func New(cfg config.Logging) *log.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New writing to out
func NewWithOutput(cfg config.Logging, out io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
