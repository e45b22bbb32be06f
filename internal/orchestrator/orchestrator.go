// Package orchestrator wires the producer and joiner goroutines together,
// waits for both to finish, and performs an orderly sink shutdown
// regardless of outcome (spec.md §4.7).
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/config"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/factwriter"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/joiner"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/partition"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/progress"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/sink"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/stream"
)

// idleSleep is the joiner's pause when its admission queue runs dry
// (spec.md §4.5 step 3, "sleep briefly (~50ms)").
const idleSleep = 50 * time.Millisecond

// Run loads the master datasets, warms the dimension caches, starts the
// producer and joiner as two goroutines, waits for both, and always
// attempts to close the sink before returning — mirroring the teacher's
// "logs and still attempts an orderly close" shutdown shape.
func Run(ctx context.Context, cfg *config.Config, snk sink.Sink, log zerolog.Logger) (runErr error) {
	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	log.Info().Msg("starting run")

	defer func() {
		if closeErr := snk.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close sink")
			if runErr == nil {
				runErr = fmt.Errorf("closing sink: %w", closeErr)
			}
		}
	}()

	products, err := master.LoadProducts(cfg.ProductMasterCSV)
	if err != nil {
		return fmt.Errorf("loading product master data: %w", err)
	}
	customers, err := master.LoadCustomers(cfg.CustomerMasterCSV)
	if err != nil {
		return fmt.Errorf("loading customer master data: %w", err)
	}
	log.Info().Int("products", len(products)).Int("customers", len(customers)).Msg("master data loaded")

	partitions, prodToPartition := master.Partition(products, cfg.PartitionSize)
	store, err := partition.NewStore(partitions, cfg.PartitionCacheSize)
	if err != nil {
		return fmt.Errorf("building partition store: %w", err)
	}

	snapshot, err := snk.WarmDimensions(ctx)
	if err != nil {
		return fmt.Errorf("warming dimension caches: %w", err)
	}
	caches := factwriter.NewCaches()
	caches.Warm(snapshot)
	writer := factwriter.New(snk, caches, customers)

	pub, err := progress.New(cfg.NATSURL, log)
	if err != nil {
		return fmt.Errorf("connecting progress publisher: %w", err)
	}
	defer pub.Close()

	j := joiner.New(cfg.HashSlotCap, cfg.CommitBatch, idleSleep, store, prodToPartition, writer, snk, pub, runID, log)

	out := make(chan stream.Transaction, cfg.StreamBufferSize)
	producer := stream.NewProducer(cfg.TransactionCSV, out, cfg.StreamSleep, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errCh <- producer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		err := j.Run(ctx, out)
		errCh <- err
		if err != nil {
			// Unblocks a producer still waiting to send to the joiner.
			cancel()
		}
	}()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("run failed")
	} else {
		log.Info().Msg("run completed successfully")
	}

	return runErr
}
