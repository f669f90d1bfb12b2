package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/rs/zerolog"
)

// ParseString reads a string from the environment or returns defaultValue,
// logging the source for operational traceability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "key"):
			logger.Debug().Str("key", key).Str("source", "environment").Bool("sensitive", true).Msg("using environment variable")
		case value == "":
			logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("empty environment variable, using default")
			return defaultValue
		default:
			logger.Debug().Str("key", key).Str("value", value).Str("source", "environment").Msg("using environment variable")
		}
		return value
	}
	logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("using default value")
	return defaultValue
}

// ParseInt reads an int from the environment or returns defaultValue.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", value).Msg("invalid int, using default")
		return defaultValue
	}
	return n
}

// ParseFloat reads a float64 from the environment or returns defaultValue.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", value).Msg("invalid float, using default")
		return defaultValue
	}
	return f
}

// ParseBool reads a bool from the environment or returns defaultValue.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", value).Msg("invalid bool, using default")
		return defaultValue
	}
	return b
}

// ParseDuration reads a time.Duration from the environment or returns
// defaultValue. Accepts any value time.ParseDuration accepts (e.g. "90s",
// "2m").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}
