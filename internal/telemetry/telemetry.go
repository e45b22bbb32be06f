// Package telemetry builds the structured logger shared across the engine.
package telemetry

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to stderr at the given level. An
// unrecognized level string falls back to info, the same permissive
// default the teacher's getEnv helpers apply to malformed configuration.
func New(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger()
}
