package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"mediagrab/internal/config"
	"mediagrab/internal/extractor"
	"mediagrab/internal/fileserver"
	"mediagrab/internal/handlers"
	"mediagrab/internal/janitor"
	"mediagrab/internal/middleware"
	"mediagrab/internal/pipeline"
	"mediagrab/internal/pool"
	"mediagrab/internal/publisher"
	"mediagrab/internal/storage"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	pipelinePool := pool.New(cfg.PipelineWorkers)
	// Publishers run their blocking I/O on this pool in both modes: disk
	// writes for local delivery, backend calls for remote.
	storagePool := pool.New(cfg.StorageWorkers)

	var pub publisher.Publisher
	var health handlers.StorageHealth
	switch cfg.DeliveryMode {
	case config.ModeLocal:
		pub = publisher.NewLocal(cfg.OutputDir, cfg.PublicBaseURL, storagePool)
		go func() {
			log.Printf("File server listening on :%s, serving %s", cfg.FileServerPort, cfg.OutputDir)
			if err := http.ListenAndServe(":"+cfg.FileServerPort, fileserver.Handler(cfg.OutputDir)); err != nil {
				log.Fatalf("File server failed: %v", err)
			}
		}()
	case config.ModeRemote:
		store, err := storage.NewManager(context.Background(), cfg, storagePool)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		pub = publisher.NewRemote(store, cfg.PresignExpiry)
		health = store
	default:
		log.Fatalf("Unknown DELIVERY_MODE %q", cfg.DeliveryMode)
	}

	ext := extractor.New(cfg.MaxVideoHeight, cfg.CookiesFile)
	cleaner := janitor.NewCleaner(client)
	pipe := pipeline.New(ext, pub, pipelinePool, cleaner, os.TempDir())

	h := handlers.New(pipe, health, cfg.DeliveryMode, cfg.PresignExpiry)
	rl := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	r := mux.NewRouter()
	r.Handle("/api/download", rl.Middleware(http.HandlerFunc(h.Download))).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	log.Printf("Starting server on :%s (mode: %s, commit: %s)", cfg.Port, cfg.DeliveryMode, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
