package logger

import (
	"io"
	"os"
	"strconv"
)

// EnvConfig is the logger configuration read from the environment by
// NewDefault. File output is only used outside APP_ENV=local.
type EnvConfig struct {
	Level       string
	Format      string
	Output      io.Writer // overrides stdout and file output when set
	ServiceName string
	Environment string // local, dev, prod

	LogFile     string
	LogFileOnly bool

	// Rotation, passed to lumberjack.
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// LoadFromEnv reads LOG_*, SERVICE_NAME and APP_ENV.
func LoadFromEnv() *EnvConfig {
	return &EnvConfig{
		Level:       envString("LOG_LEVEL", "info"),
		Format:      envString("LOG_FORMAT", "json"),
		ServiceName: envString("SERVICE_NAME", "dispatchtracker"),
		Environment: envString("APP_ENV", "local"),
		LogFile:     envString("LOG_FILE", "/var/log/dispatchtracker/app.log"),
		LogFileOnly: envParse("LOG_FILE_ONLY", false, strconv.ParseBool),
		MaxSize:     envParse("LOG_MAX_SIZE", 100, strconv.Atoi),
		MaxBackups:  envParse("LOG_MAX_BACKUPS", 7, strconv.Atoi),
		MaxAge:      envParse("LOG_MAX_AGE", 30, strconv.Atoi),
		Compress:    envParse("LOG_COMPRESS", true, strconv.ParseBool),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envParse returns fallback when key is unset or does not parse.
func envParse[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}
