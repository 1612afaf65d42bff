package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL  string
	StateDir    string
	HTTPTimeout time.Duration
	Theme       string
	LogLevel    string
	LogFile     string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists. Missing keys fall back to
// defaults; StateDir defaults to ~/.qrtrack.
func Load() *Config {
	_ = godotenv.Load() // optional, absence is fine

	return &Config{
		BackendURL:  getEnv("QRTRACK_BACKEND_URL", "https://legendbackend.onrender.com"),
		StateDir:    getEnv("QRTRACK_STATE_DIR", defaultStateDir()),
		HTTPTimeout: getDuration("QRTRACK_TIMEOUT", 15*time.Second),
		Theme:       getEnv("QRTRACK_THEME", "classic"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qrtrack"
	}
	return filepath.Join(home, ".qrtrack")
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
