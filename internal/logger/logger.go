package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitialiseLogger sets the global level and points the global logger at w
// with Unix millisecond timestamps. Logs go to stderr in the CLI so the report
// on stdout stays clean. An empty level means INFO and levels are matched
// case-insensitively.
func InitialiseLogger(logLevel string, w io.Writer) error {
	if strings.TrimSpace(logLevel) == "" {
		logLevel = "INFO"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	return nil
}
