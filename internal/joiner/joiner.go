// Package joiner implements the Hybrid Joiner: the bounded hash
// admission, partition-driven matching, and fact emission at the center
// of the engine (spec.md §4.5).
package joiner

import (
	"container/list"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/factwriter"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/partition"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/progress"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/sink"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/stream"
)

// Joiner owns every piece of consumer-side state: the admitted-transaction
// hash table, the FIFO admission queue, and the running slot count
// (spec.md §4.5, §5 "Thread C owns").
type Joiner struct {
	hashTable map[string][]stream.Transaction
	queue     *list.List // FIFO of Product_ID; list.List gives O(1) pop-front
	slotsUsed int
	slotCap   int

	partitions      partition.Store
	prodToPartition map[string]int

	writer      *factwriter.Writer
	snk         sink.Sink
	commitBatch int

	factsPending   int
	factsCommitted int

	idleSleep time.Duration
	runID     string
	pub       progress.Publisher
	log       zerolog.Logger
}

// New builds a Joiner. slotCap is HS, commitBatch is COMMIT_BATCH,
// idleSleep is the ~50ms pause taken when the admission queue runs dry
// (spec.md §4.5 step 3).
func New(
	slotCap, commitBatch int,
	idleSleep time.Duration,
	store partition.Store,
	prodToPartition map[string]int,
	writer *factwriter.Writer,
	snk sink.Sink,
	pub progress.Publisher,
	runID string,
	log zerolog.Logger,
) *Joiner {
	return &Joiner{
		hashTable:       make(map[string][]stream.Transaction),
		queue:           list.New(),
		slotCap:         slotCap,
		partitions:      store,
		prodToPartition: prodToPartition,
		writer:          writer,
		snk:             snk,
		commitBatch:     commitBatch,
		idleSleep:       idleSleep,
		runID:           runID,
		pub:             pub,
		log:             log,
	}
}

// HashSlotsUsed reports the current admitted-transaction count, exposed
// for tests asserting the HS cap invariant at admission boundaries.
func (j *Joiner) HashSlotsUsed() int {
	return j.slotsUsed
}

// Run drains in until it is closed and the hash table is empty,
// implementing the main loop of spec.md §4.5 exactly: admission,
// termination check, idle check, partition pick, partition scan, commit
// gate, and a terminal flush once the loop exits.
func (j *Joiner) Run(ctx context.Context, in <-chan stream.Transaction) error {
	producerDone := false

	for {
		if !producerDone {
			producerDone = j.admit(in)
		}

		if producerDone && len(j.hashTable) == 0 {
			break
		}

		if j.queue.Len() == 0 {
			select {
			case <-time.After(j.idleSleep):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if err := j.scanNextPartition(ctx); err != nil {
			return err
		}

		if j.factsPending >= j.commitBatch {
			if err := j.commit(ctx); err != nil {
				return err
			}
		}
	}

	if j.factsPending > 0 {
		if err := j.commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// admit drains in without blocking, up to the HS cap, appending each
// drained transaction to the hash table and pushing its product key onto
// the FIFO queue (spec.md §4.5 step 1). It reports whether the channel
// has been closed (producer_done).
func (j *Joiner) admit(in <-chan stream.Transaction) (producerDone bool) {
	for j.slotsUsed < j.slotCap {
		select {
		case t, ok := <-in:
			if !ok {
				return true
			}
			j.hashTable[t.ProductID] = append(j.hashTable[t.ProductID], t)
			j.queue.PushBack(t.ProductID)
			j.slotsUsed++
		default:
			return false
		}
	}
	return false
}

// scanNextPartition pops the oldest queued key, drops it as an orphan if
// its product is unknown to the master table, otherwise loads and scans
// its partition, emitting a fact for every buffered transaction whose
// product appears in that partition (spec.md §4.5 steps 4-5).
func (j *Joiner) scanNextPartition(ctx context.Context) error {
	front := j.queue.Front()
	key := front.Value.(string)
	j.queue.Remove(front)

	idx, known := j.prodToPartition[key]
	if !known {
		// Only place orphan transactions are silently dropped (spec.md
		// §4.5 step 4); a key re-queued after a prior eviction is
		// already gone from hashTable, making this a no-op.
		if pending, ok := j.hashTable[key]; ok {
			j.slotsUsed -= len(pending)
			delete(j.hashTable, key)
		}
		return nil
	}

	rows, err := j.partitions.Load(ctx, idx)
	if err != nil {
		return fmt.Errorf("loading partition %d: %w", idx, err)
	}

	// No early exit: the full partition is scanned to catch every
	// co-resident key queued so far, not just the one that triggered
	// this scan (spec.md §4.5's "does not early-exit").
	for _, p := range rows {
		pending, ok := j.hashTable[p.ProductID]
		if !ok {
			continue
		}
		for _, t := range pending {
			if err := j.writer.Write(ctx, t, p); err != nil {
				return fmt.Errorf("writing fact for order %s: %w", t.OrderID, err)
			}
			j.factsPending++
		}
		delete(j.hashTable, p.ProductID)
		j.slotsUsed -= len(pending)
	}
	return nil
}

func (j *Joiner) commit(ctx context.Context) error {
	if err := j.snk.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	j.factsCommitted += j.factsPending
	j.log.Info().Str("run_id", j.runID).Int("facts_committed", j.factsCommitted).
		Int("hash_slots_used", j.slotsUsed).Msg("committed batch")
	j.pub.Publish(progress.Snapshot{
		RunID:          j.runID,
		FactsCommitted: j.factsCommitted,
		HashSlotsUsed:  j.slotsUsed,
	})
	j.factsPending = 0
	return nil
}
