package config

import (
	"os"
	"time"
)

type Config struct {
	Port            string
	Env             string
	PostgresConnStr string
	MongoURI        string
	UploadDir       string
	ReaperInterval  time.Duration
}

// Load reads configuration from the environment. Empty MONGO_URI or
// POSTGRES_CONN_STR select the in-memory storage mode for that backend.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		ReaperInterval:  getDuration("STORY_REAPER_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
