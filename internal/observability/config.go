package observability

import (
	"os"
	"strings"
)

// Config carries observability settings shared by the logger and tracer.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	LogLevel    string
	LogFormat   string
}

func (c Config) Debug() bool {
	return strings.EqualFold(c.Environment, "development")
}

// LoadConfig reads observability settings from the environment.
func LoadConfig() Config {
	return Config{
		ServiceName: getenv("APP_SERVICE", "taxbridge"),
		Environment: getenv("ENVIRONMENT", "development"),
		Version:     getenv("APP_VERSION", "0.1.0"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
