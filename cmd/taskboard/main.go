package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/cache"
	"github.com/monocle-dev/taskboard/internal/config"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/monitors"
	"github.com/monocle-dev/taskboard/internal/realtime"
	"github.com/monocle-dev/taskboard/internal/router"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	logger := log.StandardLogger()
	logger.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL, cfg.Debug); err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.MigrateDatabase(db.DB); err != nil {
		logger.WithError(err).Fatal("failed to migrate database")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to configure tokens")
	}

	checks := []monitors.Check{monitors.DatabaseCheck(db.DB)}

	var (
		denylist  auth.Denylist
		analytics services.AnalyticsStore
	)

	if cfg.RedisURL != "" {
		client, err := connectRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, running without token revocation and analytics cache")
		} else {
			defer client.Close()
			denylist = auth.NewRedisDenylist(client)
			analytics = cache.NewAnalyticsCache(client, cfg.AnalyticsCacheTTL)
			checks = append(checks, monitors.RedisCheck(client))
		}
	} else {
		logger.Info("REDIS_URL not set, running without token revocation and analytics cache")
	}

	hub := realtime.NewHub(cfg.AllowedOrigins, logger)

	h := &handlers.Handler{
		Tasks:  services.NewTaskService(db.DB, logger, hub, analytics),
		Users:  services.NewUserService(db.DB, jwtManager, denylist, logger),
		Hub:    hub,
		Checks: checks,
		Domain: cfg.Domain,
	}

	r := router.NewRouter(router.Options{
		Handler:        h,
		JWT:            jwtManager,
		Authenticator:  h.Users,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	logger.WithField("port", cfg.Port).Info("starting server")

	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}
}

func connectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
