package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/corpus/pkg/config"
	"github.com/platinummonkey/corpus/pkg/mirror"
	"github.com/platinummonkey/corpus/pkg/registry"
	"github.com/platinummonkey/corpus/pkg/snapshot"
	"github.com/platinummonkey/corpus/pkg/usage"
)

var (
	dailySchedule    = flag.String("daily-schedule", "5 0 * * *", "Cron schedule for daily usage aggregation (default: 00:05 UTC)")
	resyncSchedule   = flag.String("resync-schedule", "0 * * * *", "Cron schedule for mirror resync (default: every hour)")
	snapshotSchedule = flag.String("snapshot-schedule", "30 0 * * *", "Cron schedule for document snapshot upload (default: 00:30 UTC)")
	snapshotKeep     = flag.Int("snapshot-keep", 14, "Snapshots to retain when pruning, 0 disables pruning")
	runOnce          = flag.Bool("run-once", false, "Run all maintenance once and exit (for testing)")
	aggregationDate  = flag.String("date", "", "Day to aggregate (YYYY-MM-DD format). If empty, aggregates yesterday. Only used with --run-once")
)

func main() {
	flag.Parse()

	// Stores and snapshot credentials come from the same CORPUS_* environment
	// the API server reads. Flags only control schedules.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	db, dialect, err := mirror.Open(ctx, cfg.Store.DBDriver, cfg.Store.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open mirror database: %v", err)
	}
	defer db.Close()

	if err := mirror.Migrate(ctx, db, dialect); err != nil {
		log.Fatalf("Failed to migrate mirror database: %v", err)
	}

	store, err := registry.NewDocumentStore(cfg.Store.DocumentPath, nil)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	writer := usage.NewWriter(db, dialect)
	syncer := mirror.NewSyncer(db, dialect, store)

	var uploader *snapshot.Uploader
	if cfg.Snapshot.Enabled() {
		snapLog := logrus.New()
		snapLog.SetLevel(logrus.InfoLevel)
		uploader, err = snapshot.NewUploader(ctx, cfg.Snapshot.UploaderConfig(), snapLog)
		if err != nil {
			log.Fatalf("Failed to configure snapshot uploader: %v", err)
		}
	}

	// Run once mode (for testing or backfilling)
	if *runOnce {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if *aggregationDate != "" {
			day, err = time.Parse("2006-01-02", *aggregationDate)
			if err != nil {
				log.Fatalf("Invalid date format: %v", err)
			}
		}

		log.Printf("Running maintenance for %s", day.Format("2006-01-02"))
		if err := runMaintenance(writer, syncer, uploader, cfg.Store.DocumentPath, *snapshotKeep, day); err != nil {
			log.Fatalf("Maintenance failed: %v", err)
		}

		log.Println("Maintenance completed successfully")
		return
	}

	c := cron.New()

	// Daily usage rollup (aggregates yesterday's raw entries at 00:05 UTC)
	_, err = c.AddFunc(*dailySchedule, func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		log.Printf("Starting daily usage aggregation for %s", yesterday.Format("2006-01-02"))

		if err := writer.AggregateDaily(context.Background(), yesterday); err != nil {
			log.Printf("Daily usage aggregation failed: %v", err)
		} else {
			log.Println("Daily usage aggregation completed successfully")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily aggregation: %v", err)
	}

	// Mirror resync (every hour) catches drift from out-of-band document edits
	_, err = c.AddFunc(*resyncSchedule, func() {
		log.Println("Resyncing mirror from document store")

		count, err := syncer.RebuildAll(context.Background())
		if err != nil {
			log.Printf("Mirror resync failed: %v", err)
		} else {
			log.Printf("Mirror resynced with %d datasets", count)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule mirror resync: %v", err)
	}

	// Document snapshot to object storage (daily, only when configured)
	if uploader != nil {
		_, err = c.AddFunc(*snapshotSchedule, func() {
			log.Println("Uploading document snapshot")

			if err := uploadSnapshot(uploader, cfg.Store.DocumentPath, *snapshotKeep); err != nil {
				log.Printf("Snapshot upload failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule snapshot upload: %v", err)
		}
	}

	c.Start()
	log.Println("Corpus maintenance aggregator started")
	log.Printf("Daily aggregation schedule: %s", *dailySchedule)
	log.Printf("Mirror resync schedule: %s", *resyncSchedule)
	if uploader != nil {
		log.Printf("Snapshot schedule: %s", *snapshotSchedule)
	}

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")

	stopCtx := c.Stop()
	<-stopCtx.Done()

	log.Println("Aggregator stopped")
}

func runMaintenance(writer *usage.Writer, syncer *mirror.Syncer, uploader *snapshot.Uploader, documentPath string, keep int, day time.Time) error {
	ctx := context.Background()

	if err := writer.AggregateDaily(ctx, day); err != nil {
		log.Printf("Usage aggregation failed: %v", err)
		return err
	}
	log.Println("✓ Usage aggregated")

	count, err := syncer.RebuildAll(ctx)
	if err != nil {
		log.Printf("Mirror resync failed: %v", err)
		return err
	}
	log.Printf("✓ Mirror resynced (%d datasets)", count)

	if uploader != nil {
		if err := uploadSnapshot(uploader, documentPath, keep); err != nil {
			return err
		}
		log.Println("✓ Snapshot uploaded")
	}

	return nil
}

func uploadSnapshot(uploader *snapshot.Uploader, documentPath string, keep int) error {
	ctx := context.Background()

	key, err := uploader.Upload(ctx, documentPath)
	if err != nil {
		return err
	}
	log.Printf("Snapshot stored at %s", key)

	if keep > 0 {
		pruned, err := uploader.Prune(ctx, keep)
		if err != nil {
			log.Printf("Snapshot prune failed: %v", err)
			return err
		}
		if pruned > 0 {
			log.Printf("Pruned %d old snapshots", pruned)
		}
	}

	return nil
}
