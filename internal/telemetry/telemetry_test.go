package telemetry

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesRecognizedLevel(t *testing.T) {
	log := New("debug")
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNewFallsBackToInfoOnUnrecognizedLevel(t *testing.T) {
	log := New("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
