// Package config loads server configuration from the environment and game
// tuning from an optional YAML file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	HTTPAddr       string
	WebDir         string
	WSReadLimit    int64
	WSPingInterval time.Duration
	TuningPath     string
}

// Load reads configuration from the environment. `.env.{ENV}` and `.env`
// files are loaded first when present; existing environment variables win.
func Load() (*Config, error) {
	env := getenv("ENV", "development")

	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load()

	cfg := &Config{
		Env:            env,
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		WebDir:         getenv("WEB_DIR", "web"),
		WSReadLimit:    int64(getenvInt("WS_READ_LIMIT", 4096)),
		WSPingInterval: time.Duration(getenvInt("WS_PING_INTERVAL_SEC", 30)) * time.Second,
		TuningPath:     getenv("GAME_TUNING", ""),
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
