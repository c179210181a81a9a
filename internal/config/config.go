package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	RedisURL          string
	Domain            string
	AllowedOrigins    []string
	AnalyticsCacheTTL time.Duration
	Debug             bool
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Load reads the process environment. godotenv has already populated it from
// .env when one exists.
func Load() (Config, error) {
	cfg := Config{
		Port:              "3000",
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          30 * 24 * time.Hour,
		RedisURL:          os.Getenv("REDIS_URL"),
		Domain:            os.Getenv("DOMAIN"),
		AnalyticsCacheTTL: 5 * time.Minute,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("ANALYTICS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid ANALYTICS_CACHE_TTL %q", v)
		}
		cfg.AnalyticsCacheTTL = d
	}

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = dbg
	}

	cfg.AllowedOrigins = allowedOrigins()

	return cfg, nil
}

func allowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowed := os.Getenv("ALLOWED_ORIGINS"); allowed != "" {
		for _, origin := range strings.Split(allowed, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
