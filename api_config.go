package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	storeBackendRedis    = "redis"
	storeBackendPostgres = "postgres"

	defaultWeatherAPIURL = "https://api.weatherapi.com/v1/"
)

type apiConfig struct {
	weatherAPIURL   string
	weatherAPIKey   string
	httpClient      *http.Client
	storeBackend    string
	redisURL        string
	dbURL           string
	fallbackCity    string
	forecastDays    int
	searchDebounce  time.Duration
	refreshInterval time.Duration
	port            string
	devMode         bool
	logger          *slog.Logger

	controller *SearchController
}

// getRequiredEnv retrieves an environment variable by key, returning an error
// wrapping ErrConfig if it is unset or empty.
func getRequiredEnv(key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", failure(ErrConfig, "environment variable %s must be set", key)
	}
	return val, nil
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func newLogger(devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// newAPIConfig reads the configuration from the environment, after loading a
// .env file if one is present. It does not open any connection.
func newAPIConfig() (*apiConfig, error) {
	devMode, err := strconv.ParseBool(os.Getenv("DEV_MODE"))
	if err != nil {
		devMode = false
	}
	logger := newLogger(devMode)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	apiKey, err := getRequiredEnv("WEATHERAPI_KEY")
	if err != nil {
		return nil, err
	}

	weatherAPIURL := getEnv("WEATHERAPI_URL", defaultWeatherAPIURL, logger)
	if !strings.HasSuffix(weatherAPIURL, "/") {
		weatherAPIURL += "/"
	}

	cfg := &apiConfig{
		weatherAPIURL: weatherAPIURL,
		weatherAPIKey: apiKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &metricsTransport{wrapped: http.DefaultTransport},
		},
		storeBackend: strings.ToLower(getEnv("STORE_BACKEND", storeBackendRedis, logger)),
		fallbackCity: getEnv("FALLBACK_CITY", defaultFallbackCity, logger),
		port:         getEnv("PORT", "8080", logger),
		devMode:      devMode,
		logger:       logger,
	}

	switch cfg.storeBackend {
	case storeBackendRedis:
		if cfg.redisURL, err = getRequiredEnv("REDIS_URL"); err != nil {
			return nil, err
		}
	case storeBackendPostgres:
		if cfg.dbURL, err = getRequiredEnv("DB_URL"); err != nil {
			return nil, err
		}
	default:
		return nil, failure(ErrConfig, "unknown STORE_BACKEND %q", cfg.storeBackend)
	}

	cfg.forecastDays = getEnvAsInt("FORECAST_DAYS", defaultForecastDays, logger)
	if cfg.forecastDays < 1 {
		logger.Warn("FORECAST_DAYS must be at least 1, using fallback", "value", cfg.forecastDays, "fallback", defaultForecastDays)
		cfg.forecastDays = defaultForecastDays
	}

	debounceMS := getEnvAsInt("SEARCH_DEBOUNCE_MS", int(defaultDebounceWindow/time.Millisecond), logger)
	if debounceMS <= 0 {
		debounceMS = int(defaultDebounceWindow / time.Millisecond)
	}
	cfg.searchDebounce = time.Duration(debounceMS) * time.Millisecond

	refreshMin := getEnvAsInt("REFRESH_INTERVAL_MIN", 0, logger)
	if refreshMin > 0 {
		cfg.refreshInterval = time.Duration(refreshMin) * time.Minute
	}

	return cfg, nil
}

// connectStore opens the configured location store and checks that it is
// reachable.
func (cfg *apiConfig) connectStore(ctx context.Context) (LocationStore, func() error, error) {
	switch cfg.storeBackend {
	case storeBackendPostgres:
		db, err := connectPostgres(ctx, cfg.dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't connect to database: %w", err)
		}
		store := NewPostgresLocationStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		cfg.logger.Info("connected to database")
		return store, db.Close, nil
	default:
		opt, err := redis.ParseURL(cfg.redisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not parse Redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("couldn't connect to cache: %w", err)
		}
		cfg.logger.Info("connected to redis")
		return NewRedisLocationStore(client), client.Close, nil
	}
}

// newController builds the SearchController wired to the weather API and the
// given store.
func (cfg *apiConfig) newController(store LocationStore) *SearchController {
	client := NewWeatherAPIClient(cfg.weatherAPIKey, cfg.weatherAPIURL, cfg.httpClient)
	return NewSearchController(client, store, ControllerOptions{
		FallbackCity:   cfg.fallbackCity,
		ForecastDays:   cfg.forecastDays,
		DebounceWindow: cfg.searchDebounce,
		Logger:         cfg.logger,
	})
}
