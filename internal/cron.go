package internal

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/rm-hull/heat-metadata-collector/internal/metrics"
	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

const CRON_SCHEDULE_COLLECT = "*/5 * * * *" // Every 5 minutes

type MetadataCollector interface {
	Name() string
	Collect(ctx context.Context) ([]models.Entry, error)
}

// CollectAndStore runs a single collection and records the result if it differs
// from the last one stored.
func CollectAndStore(ctx context.Context, collector MetadataCollector, repo SnapshotRepository, recorder *metrics.Recorder) error {
	entries, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect %s metadata: %w", collector.Name(), err)
	}

	changed, err := repo.Store(collector.Name(), entries)
	if err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", collector.Name(), err)
	}

	if changed {
		recorder.SnapshotChanged(collector.Name())
		log.Printf("%s metadata changed, stored new snapshot with %d entries", collector.Name(), len(entries))
	} else {
		log.Printf("%s metadata unchanged", collector.Name())
	}
	return nil
}

// StartCron schedules CollectAndStore for the collector. Every run uses ctx, so
// cancelling it aborts an in-flight fetch; callers should still wait on
// Stop().Done() before closing the repository.
func StartCron(ctx context.Context, collector MetadataCollector, repo SnapshotRepository, schedule string, recorder *metrics.Recorder) (*cron.Cron, error) {
	if schedule == "" {
		schedule = CRON_SCHEDULE_COLLECT
	}

	// A slow API must not cause overlapping collections for the same resource.
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	log.Printf("Starting CRON job to collect %s metadata (%s)", collector.Name(), schedule)

	if _, err := c.AddFunc(schedule, func() {
		if err := CollectAndStore(ctx, collector, repo, recorder); err != nil {
			log.Printf("Error collecting metadata: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
