package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

type Config struct {
	DBPath        string
	APIBaseURL    string
	LogLevel      string
	LogFormat     string
	BatchSize     int
	HTTPTimeout   time.Duration
	PollInterval  time.Duration
	ProbeInterval time.Duration
	ProbePath     string
	MetricsAddr   string
}

func Load() *Config {
	_ = godotenv.Load()

	batchSize := getEnvInt("BATCH_SIZE", 10)

	if batchSize > MaxBatchSize {
		slog.Warn("BATCH_SIZE exceeds safety limit. Clamping to maximum", "requested", batchSize, "limit", MaxBatchSize)
		batchSize = MaxBatchSize
	} else if batchSize < MinBatchSize {
		batchSize = MinBatchSize
	}

	return &Config{
		DBPath:        getEnv("DB_PATH", "blackbus.db"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080/api"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFormat:     getEnv("LOG_FORMAT", "TEXT"),
		BatchSize:     batchSize,
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 20)) * time.Second,
		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_SEC", 60)) * time.Second,
		ProbeInterval: time.Duration(getEnvInt("PROBE_INTERVAL_SEC", 10)) * time.Second,
		ProbePath:     getEnv("PROBE_PATH", "health"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
