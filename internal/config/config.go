// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port               string
	AllowedOrigins     string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SnapshotTTLMinutes int
	ExtractHistYears   int
	ExecutiveRowCap    int
	LogLevel           string
	BuyerNames         map[string]string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("SNAPSHOT_TTL_MINUTES", "120"))
	if err != nil || ttl < 1 {
		ttl = 120
	}
	histYears, err := strconv.Atoi(getEnv("EXTRACT_HISTORY_YEARS", "4"))
	if err != nil || histYears < 1 {
		histYears = 4
	}
	rowCap, err := strconv.Atoi(getEnv("EXECUTIVE_ROW_CAP", "500"))
	if err != nil || rowCap < 1 {
		rowCap = 500
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		SnapshotTTLMinutes: ttl,
		ExtractHistYears:   histYears,
		ExecutiveRowCap:    rowCap,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		BuyerNames:         parseBuyerNames(os.Getenv("BUYER_NAMES")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// parseBuyerNames reads a "code=name" comma-separated list, e.g.
// "016=Alice,007=Bob". Malformed entries are skipped.
func parseBuyerNames(raw string) map[string]string {
	names := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		code, name, ok := strings.Cut(entry, "=")
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if !ok || code == "" || name == "" {
			continue
		}
		names[code] = name
	}
	return names
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
