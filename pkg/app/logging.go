package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel overrides the log level when no flag is given.
const EnvLogLevel = "HOMEAGENT_LOG_LEVEL"

// SetupLogging points the global logger at a console writer on w. An empty
// level falls back to $HOMEAGENT_LOG_LEVEL, then info.
func SetupLogging(level string, w io.Writer) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})

	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
