package progress

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithEmptyURLReturnsNoop(t *testing.T) {
	pub, err := New("", zerolog.Nop())
	require.NoError(t, err)

	// Must not panic even though nothing is listening.
	pub.Publish(Snapshot{RunID: "run-1", FactsCommitted: 10})
	pub.Close()
}

func TestSubjectForNamespacesByRunID(t *testing.T) {
	assert.Equal(t, "etl.progress.run-42", subjectFor("run-42"))
}

func TestNewWithUnreachableURLFails(t *testing.T) {
	_, err := New("nats://127.0.0.1:1", zerolog.Nop())
	assert.Error(t, err)
}
