package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/bilal/transition-relay/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to w in the configured format.
func New(lcfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if strings.ToLower(lcfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init configures the global level and replaces the global logger.
func Init(lcfg config.LoggingConfig) {
	zerolog.SetGlobalLevel(ParseLevel(lcfg.Level))
	log.Logger = New(lcfg, os.Stderr)
}
