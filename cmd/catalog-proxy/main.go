package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-pager/pkg/catalog"
	"github.com/Sternrassler/catalog-pager/pkg/logging"
	"github.com/Sternrassler/catalog-pager/pkg/redislist"
	"github.com/Sternrassler/catalog-pager/pkg/upstream"
)

// config is read once from the environment at startup.
type config struct {
	Port        string
	RedisURL    string
	UpstreamURL string
	UserAgent   string
	LogLevel    string
	LogPretty   bool
	Catalog     catalog.Config
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
		Service: "catalog-proxy",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		backend     catalog.Backend
		redisClient *redis.Client
	)

	if cfg.UpstreamURL != "" {
		client, err := upstream.New(upstream.DefaultConfig(cfg.UpstreamURL, cfg.UserAgent))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create upstream client")
		}
		backend = catalog.HTTPBackend(client)
		log.Info().Str("upstream", cfg.UpstreamURL).Msg("Using HTTP catalog backend")
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer func() { _ = redisClient.Close() }()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("redis", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		backend = catalog.RedisBackend(redislist.NewStore(redisClient), nil)
		log.Info().Str("redis", cfg.RedisURL).Msg("Using Redis catalog backend")
	}

	srv := newServer(catalog.New(backend, cfg.Catalog), redisClient)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", httpServer.Addr).
		Str("user_agent", cfg.UserAgent).
		Dur("coalesce_window", cfg.Catalog.Coalesce.Window).
		Int("full_page_size", cfg.Catalog.Full.PageSize).
		Int("full_parallelism", cfg.Catalog.Full.Parallelism).
		Msg("Starting catalog proxy")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Catalog proxy stopped")
}

func loadConfig() (config, error) {
	cfg := config{
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		UpstreamURL: getEnv("UPSTREAM_URL", ""),
		UserAgent:   getEnv("USER_AGENT", "catalog-pager/0.1.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Catalog:     catalog.DefaultConfig(),
	}

	var err error
	if cfg.LogPretty, err = strconv.ParseBool(getEnv("LOG_PRETTY", "false")); err != nil {
		return config{}, fmt.Errorf("LOG_PRETTY: %w", err)
	}
	if v := getEnv("COALESCE_WINDOW", ""); v != "" {
		if cfg.Catalog.Coalesce.Window, err = time.ParseDuration(v); err != nil {
			return config{}, fmt.Errorf("COALESCE_WINDOW: %w", err)
		}
		if cfg.Catalog.Coalesce.Window <= 0 {
			return config{}, fmt.Errorf("COALESCE_WINDOW: must be positive, got %s", v)
		}
	}
	if cfg.Catalog.Full.PageSize, err = getEnvInt("FULL_PAGE_SIZE", cfg.Catalog.Full.PageSize); err != nil {
		return config{}, err
	}
	if cfg.Catalog.Full.Parallelism, err = getEnvInt("FULL_PARALLELISM", cfg.Catalog.Full.Parallelism); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
