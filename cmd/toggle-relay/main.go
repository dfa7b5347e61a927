package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nlohse/feature-toggle-client/pkg/backoff"
	"github.com/nlohse/feature-toggle-client/pkg/cache"
	"github.com/nlohse/feature-toggle-client/pkg/client"
	"github.com/nlohse/feature-toggle-client/pkg/logging"
	"github.com/nlohse/feature-toggle-client/pkg/refresh"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})

	// Configuration from environment
	port := getEnv("PORT", "8080")
	appName := getEnv("APP_NAME", "toggle-relay")
	instanceID := getEnv("INSTANCE_ID", "relay")

	interval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "30s"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REFRESH_INTERVAL")
	}

	sources, err := parseSources(
		os.Getenv("SOURCES"),
		os.Getenv("SOURCE_TOKENS"),
		os.Getenv("UPSTREAM_URL"),
		os.Getenv("UPSTREAM_TOKEN"),
		appName,
		instanceID,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid source configuration")
	}

	// Optional Redis: shared definitions store and backoff state across
	// relay replicas. Without it everything stays in process memory.
	var store cache.Store = cache.NewMemoryStore()
	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", addr).Msg("Failed to connect to Redis")
		}

		store = cache.NewRedisStore(redisClient)
		logger.Info().Str("addr", addr).Msg("Connected to Redis")
	}

	tracker := backoff.NewTracker(redisClient, logging.NewLogger("toggle-backoff"))
	refresher := refresh.NewRefresher(sources, refresh.Config{
		Interval: interval,
		Store:    store,
		Tracker:  tracker,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go refresher.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(store, sources))
	mux.HandleFunc("/definitions", definitionsHandler(store, sources, logger))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Int("sources", len(sources)).
			Msg("Starting toggle relay")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

// parseSources builds the refresh source list from the environment.
// SOURCES holds comma-separated name=url pairs and SOURCE_TOKENS holds
// comma-separated name=token pairs for upstreams requiring
// authorization. When SOURCES is unset, UPSTREAM_URL/UPSTREAM_TOKEN
// configure a single source named "default".
func parseSources(sourcesEnv, tokensEnv, upstreamURL, upstreamToken, appName, instanceID string) ([]refresh.Source, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(tokensEnv, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, token, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed SOURCE_TOKENS entry %q", pair)
		}
		tokens[name] = token
	}

	newConfig := func(name, url string) client.Config {
		return client.Config{
			URL:        url,
			Token:      tokens[name],
			AppName:    appName,
			InstanceID: instanceID,
		}
	}

	if sourcesEnv == "" {
		if upstreamURL == "" {
			return nil, fmt.Errorf("SOURCES or UPSTREAM_URL is required")
		}
		cfg := newConfig("default", upstreamURL)
		if upstreamToken != "" {
			cfg.Token = upstreamToken
		}
		return []refresh.Source{{Name: "default", Config: cfg}}, nil
	}

	var sources []refresh.Source
	for _, pair := range strings.Split(sourcesEnv, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("malformed SOURCES entry %q", pair)
		}
		sources = append(sources, refresh.Source{Name: name, Config: newConfig(name, url)})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("SOURCES or UPSTREAM_URL is required")
	}
	return sources, nil
}

// sourceKey reproduces the store key the fetcher uses for a source.
// Relay source configs always carry explicit AppName and InstanceID,
// so the key never depends on fetcher-side defaults.
func sourceKey(cfg client.Config) cache.Key {
	return cache.Key{
		URL:        cfg.URL,
		Token:      cfg.Token,
		InstanceID: cfg.InstanceID,
		AppName:    cfg.AppName,
	}
}

// selectSource resolves the source a request asks for via the
// ?source= query parameter. Without the parameter a single-source
// relay serves its only source; multi-source relays fall back to the
// source named "default".
func selectSource(sources []refresh.Source, r *http.Request) (refresh.Source, bool) {
	name := r.URL.Query().Get("source")
	if name == "" {
		if len(sources) == 1 {
			return sources[0], true
		}
		name = "default"
	}
	for _, source := range sources {
		if source.Name == name {
			return source, true
		}
	}
	return refresh.Source{}, false
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports ready once at least one source has a cached
// payload to serve.
func readyHandler(store cache.Store, sources []refresh.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, source := range sources {
			entry, err := store.Get(r.Context(), sourceKey(source.Config))
			if err == nil && entry.HasDefinitions() {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, "OK")
				return
			}
		}
		http.Error(w, "no definitions loaded", http.StatusServiceUnavailable)
	}
}

// definitionsHandler serves the cached definitions payload for a
// source, with the relay's own conditional request handling: the
// upstream ETag is passed through and a matching If-None-Match is
// answered with 304.
func definitionsHandler(store cache.Store, sources []refresh.Source, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		source, ok := selectSource(sources, r)
		if !ok {
			http.Error(w, "unknown source", http.StatusNotFound)
			return
		}

		entry, err := store.Get(r.Context(), sourceKey(source.Config))
		if err != nil && err != cache.ErrCacheMiss {
			logger.Warn().Err(err).Str("source", source.Name).Msg("Definitions store read failed")
			http.Error(w, "definitions unavailable", http.StatusServiceUnavailable)
			return
		}
		if !entry.HasDefinitions() {
			http.Error(w, "definitions not loaded", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if entry.HasETag() {
			w.Header().Set("ETag", entry.ETag)
			if r.Header.Get("If-None-Match") == entry.ETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(entry.Definitions); err != nil {
			logger.Warn().Err(err).Str("source", source.Name).Msg("Failed to write definitions response")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
