package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"mediagrab/internal/config"
	"mediagrab/internal/janitor"
	"mediagrab/internal/pool"
	"mediagrab/internal/storage"
	"mediagrab/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()

	// The reaper only applies in remote mode; local mode has no bucket.
	var store janitor.ObjectStore
	if cfg.DeliveryMode == config.ModeRemote {
		m, err := storage.NewManager(context.Background(), cfg, pool.New(cfg.StorageWorkers))
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		store = m
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				tasks.QueueCleanup: 2,
				"default":          1,
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := janitor.NewTaskHandler(store, cfg.ObjectRetention)

	mux.HandleFunc(tasks.TypeCleanupTempFile, taskHandler.HandleCleanupTempFileTask)
	mux.HandleFunc(tasks.TypeReapStaleObjects, taskHandler.HandleReapStaleObjectsTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
