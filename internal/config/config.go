package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

type Config struct {
	HTTPAddr string
	DB       db.PostgresConfig

	// QueryBatchSize caps how many rows a single bulk UPDATE statement
	// touches; larger propagations are split into batches of this size.
	QueryBatchSize int

	// PropagationWorkers bounds the fan-out used when recomputing draft
	// order amounts during bulk propagation.
	PropagationWorkers int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DB: db.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "promotion_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		QueryBatchSize:     getEnvInt("QUERY_BATCH_SIZE", 1000),
		PropagationWorkers: getEnvInt("PROPAGATION_WORKERS", 4),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
