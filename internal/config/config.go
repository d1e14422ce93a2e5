package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Delivery modes. Remote publishes to object storage and hands out presigned
// links; local copies files into OutputDir and links to the file server.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Config holds every knob the process reads at startup. Nothing here is
// reloadable at runtime.
type Config struct {
	Port         string
	DeliveryMode string

	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	// StorageEndpoint overrides the endpoint derived from StorageRegion.
	StorageEndpoint string
	StorageUseSSL   bool

	PresignExpiry   time.Duration
	ObjectRetention time.Duration

	PipelineWorkers int
	StorageWorkers  int

	OutputDir      string
	FileServerPort string
	PublicBaseURL  string

	RedisAddr string

	MaxVideoHeight int
	CookiesFile    string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration from the environment. Callers are expected to
// have run godotenv.Load() beforehand.
func Load() Config {
	return Config{
		Port:         getenv("PORT", "8080"),
		DeliveryMode: getenv("DELIVERY_MODE", ModeRemote),

		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:    os.Getenv("STORAGE_BUCKET"),
		StorageRegion:    getenv("STORAGE_REGION", "us-east-1"),
		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageUseSSL:    getenvBool("STORAGE_USE_SSL", true),

		PresignExpiry:   time.Duration(getenvInt("PRESIGN_EXPIRY_SECONDS", 86400)) * time.Second,
		ObjectRetention: time.Duration(getenvInt("OBJECT_RETENTION_HOURS", 48)) * time.Hour,

		PipelineWorkers: getenvInt("PIPELINE_WORKERS", 8),
		StorageWorkers:  getenvInt("STORAGE_WORKERS", 4),

		OutputDir:      getenv("OUTPUT_DIR", "files"),
		FileServerPort: getenv("FILE_SERVER_PORT", "8090"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8090"),

		RedisAddr: getenv("REDIS_ADDR", "127.0.0.1:6379"),

		MaxVideoHeight: getenvInt("MAX_VIDEO_HEIGHT", 720),
		CookiesFile:    os.Getenv("YTDLP_COOKIES"),

		RateLimitRPS:   getenvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getenvInt("RATE_LIMIT_BURST", 3),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
