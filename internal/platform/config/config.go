package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs at startup. Required fields are
// validated by FromEnv; the rest fall back to sensible defaults.
type Config struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string

	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string

	TmpDir             string
	MaxConcurrentClips int
	StageTimeout       time.Duration
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv builds a Config from the environment. Optional values always get
// their defaults, so the returned Config is usable (e.g. for logging) even
// when the error is non-nil. The error lists every missing required variable
// so operators can fix them all in one pass.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:       GetEnv("APP_ENV", "production"),
		Port:      GetEnv("PORT", "3000"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),

		R2Endpoint:        os.Getenv("R2_ENDPOINT"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),

		TmpDir:             GetEnv("TMP_DIR", os.TempDir()),
		MaxConcurrentClips: GetEnvInt("MAX_CONCURRENT_CLIPS", 4),
		StageTimeout:       time.Duration(GetEnvInt("STAGE_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	var missing []string
	for _, v := range []struct {
		key, val string
	}{
		{"R2_ENDPOINT", cfg.R2Endpoint},
		{"R2_ACCESS_KEY_ID", cfg.R2AccessKeyID},
		{"R2_SECRET_ACCESS_KEY", cfg.R2SecretAccessKey},
		{"R2_BUCKET_NAME", cfg.R2Bucket},
	} {
		if v.val == "" {
			missing = append(missing, v.key)
		}
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
