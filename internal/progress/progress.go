// Package progress publishes best-effort run progress to NATS, mirroring
// the teacher's SnapshotWorker.publishDetailedProgress: a non-essential
// side channel whose failures are logged and swallowed, never fatal to
// the run (spec.md §7 treats progress/observability as out of scope for
// correctness).
package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Snapshot is one point-in-time progress payload.
type Snapshot struct {
	RunID          string `json:"runId"`
	FactsCommitted int    `json:"factsCommitted"`
	HashSlotsUsed  int    `json:"hashSlotsUsed"`
}

// Publisher publishes a Snapshot. A no-op Publisher is returned by New
// when no NATS URL is configured.
type Publisher interface {
	Publish(snap Snapshot)
	Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(Snapshot) {}
func (noopPublisher) Close()           {}

type natsPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// New connects to natsURL and returns a Publisher that publishes to
// etl.progress.<runID>. An empty natsURL disables progress publishing
// entirely (spec.md §9 treats this as out of scope for the core engine).
func New(natsURL string, log zerolog.Logger) (Publisher, error) {
	if natsURL == "" {
		return noopPublisher{}, nil
	}

	options := []nats.Option{
		nats.Name("hybrid-join-etl"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &natsPublisher{conn: conn, log: log}, nil
}

func (p *natsPublisher) Publish(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		p.log.Warn().Err(err).Msg("failed to marshal progress snapshot")
		return
	}

	subject := subjectFor(snap.RunID)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Msg("failed to publish progress")
	}
}

func (p *natsPublisher) Close() {
	p.conn.Close()
}

func subjectFor(runID string) string {
	return fmt.Sprintf("etl.progress.%s", runID)
}
