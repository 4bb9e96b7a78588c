package producer

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the harness binaries' own configuration, separate from the
// dispatch engine's internal/config.
type Config struct {
	HTTPPort     string
	DBDSN        string
	KafkaBrokers string
	Env          string
}

func MustLoadConfig() Config {
	_ = godotenv.Load(".env")
	cfg := Config{
		HTTPPort:     getEnv("INGEST_HTTP_PORT", "8080"),
		DBDSN:        getEnv("DB_DSN", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		Env:          getEnv("APP_ENV", "dev"),
	}
	if cfg.DBDSN == "" {
		log.Fatal("missing required env: DB_DSN")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
