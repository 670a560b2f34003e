package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the service settings, loaded from the environment with an
// optional .env file.
type Config struct {
	ListenAddr   string
	DBPath       string
	KafkaBrokers []string // empty disables event publishing
	KafkaTopic   string
	OverdueCron  string // cron expression for the overdue review job
	LogLevel     string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DBPath:       getEnv("DB_PATH", "pawnledger.db"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "loan_events"),
		OverdueCron:  getEnv("OVERDUE_REVIEW_CRON", "0 9 * * *"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
