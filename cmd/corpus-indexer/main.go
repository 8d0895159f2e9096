package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/corpus/pkg/mirror"
	"github.com/platinummonkey/corpus/pkg/registry"
)

var (
	documentPath = flag.String("document", getEnv("CORPUS_DOCUMENT_PATH", "datasets.json"), "Path to the dataset document file")
	dbDriver     = flag.String("db-driver", getEnv("CORPUS_DB_DRIVER", "sqlite3"), "Mirror database driver (sqlite3 or postgres)")
	dbDSN        = flag.String("db-dsn", getEnv("CORPUS_DB_DSN", "datasets.db"), "Mirror database DSN")
	watch        = flag.Bool("watch", false, "Keep running and rebuild the mirror when the document changes")
	debounce     = flag.Duration("debounce", 2*time.Second, "Quiet period before a rebuild in watch mode")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := mirror.Open(ctx, *dbDriver, *dbDSN)
	if err != nil {
		log.Fatalf("Failed to open mirror database: %v", err)
	}
	defer db.Close()

	if err := mirror.Migrate(ctx, db, dialect); err != nil {
		log.Fatalf("Failed to migrate mirror database: %v", err)
	}

	store, err := registry.NewDocumentStore(*documentPath, nil)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	syncer := mirror.NewSyncer(db, dialect, store)
	count, err := syncer.RebuildAll(ctx)
	if err != nil {
		log.Fatalf("Mirror rebuild failed: %v", err)
	}
	log.Printf("Mirror rebuilt with %d datasets from %s", count, *documentPath)

	if !*watch {
		return
	}

	watchLog := logrus.New()
	watchLog.SetLevel(logrus.InfoLevel)
	watcher := mirror.NewWatcher(*documentPath, syncer, *debounce, watchLog)
	if err := watcher.Run(ctx); err != nil {
		log.Fatalf("Watcher stopped: %v", err)
	}
	log.Println("Indexer stopped")
}

// getEnv returns the environment value for key, or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
