package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config carries runtime settings for the API server and migration tool.
// Values come from the environment; a .env file is honored in dev.
type Config struct {
	Addr          string
	DSN           string
	MigrationsDir string
	SeedsDir      string
	RateBurst     int
	RatePerSecond int
	MaxBodyBytes  int64
}

// Load reads configuration from the environment with sane defaults.
func Load() Config {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	return Config{
		Addr:          getEnv("WAXLINE_ADDR", ":8080"),
		DSN:           getEnv("WAXLINE_PG_DSN", ""),
		MigrationsDir: getEnv("WAXLINE_MIGRATIONS_DIR", "migrations"),
		SeedsDir:      getEnv("WAXLINE_SEEDS_DIR", "migrations/seeds"),
		RateBurst:     getEnvInt("WAXLINE_RATE_BURST", 50),
		RatePerSecond: getEnvInt("WAXLINE_RATE_PER_SECOND", 25),
		MaxBodyBytes:  int64(getEnvInt("WAXLINE_MAX_BODY_BYTES", 1<<20)),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err == nil {
			return value
		}
	}
	return defaultValue
}
