// cmd/matching-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caregiver-matching/internal/candidates"
	"caregiver-matching/internal/common/broker"
	"caregiver-matching/internal/common/config"
	"caregiver-matching/internal/common/database"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/common/observability"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/engines/basic"
	"caregiver-matching/internal/engines/externalranker"
	"caregiver-matching/internal/engines/fuzzy"
	"caregiver-matching/internal/engines/rulebased"
	"caregiver-matching/internal/gateway"
	"caregiver-matching/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const catalogPath = "configs/engines.json"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matching gateway...",
		zap.String("environment", cfg.App.Environment),
		zap.String("candidateSource", cfg.Candidates.Source),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Candidate pool backends ---
	var deps candidates.Deps
	switch cfg.Candidates.Source {
	case config.SourcePostgres:
		err = retryWithBackoff(func() error {
			var err error
			deps.Postgres, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return deps.Postgres.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer deps.Postgres.Close()
		zapLog.Info("PostgreSQL connected successfully")

	case config.SourceElasticsearch:
		err = retryWithBackoff(func() error {
			var err error
			deps.Elasticsearch, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return deps.Elasticsearch.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	loader, err := candidates.NewLoader(cfg.Candidates, deps)
	if err != nil {
		zapLog.Fatal("candidate loader", zap.Error(err))
	}

	providerOpts := []candidates.ProviderOption{
		candidates.WithMaxAge(config.GetDuration(cfg.Candidates.CacheTTL)),
		candidates.WithLoadTimeout(60 * time.Second),
	}

	// Redis is optional: without it a cold start has no fallback pool.
	if cfg.Database.Redis.Address != "" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, continuing without snapshot cache", zap.Error(err))
		} else {
			defer redis.Close()
			providerOpts = append(providerOpts, candidates.WithCache(
				candidates.NewSnapshotCache(redis, cfg.Candidates.CacheKey, config.GetDuration(cfg.Candidates.CacheTTL)),
			))
			zapLog.Info("Redis connected successfully")
		}
	}

	provider := candidates.NewProvider(loader, log, providerOpts...)
	warmCtx, cancelWarm := context.WithTimeout(ctx, 60*time.Second)
	if snap, err := provider.Snapshot(warmCtx); err != nil {
		zapLog.Warn("initial candidate load failed, will retry on first request", zap.Error(err))
	} else {
		zapLog.Info("Candidate pool ready", zap.Int("size", len(snap.Candidates)), zap.Bool("fromCache", snap.FromCache))
	}
	cancelWarm()

	// --- Pool refresh notifications ---
	var refresher *candidates.Refresher
	if cfg.Broker.URL != "" {
		nc, err := broker.NewNATS(cfg.Broker)
		if err != nil {
			zapLog.Warn("nats unavailable, pool refresh notifications disabled", zap.Error(err))
		} else {
			defer nc.Close()
			refresher = candidates.NewRefresher(nc, cfg.Candidates.RefreshSubject, provider, log)
			if err := refresher.Start(); err != nil {
				zapLog.Error("failed to start pool refresher", zap.Error(err))
				refresher = nil
			}
		}
	}

	// --- Engines ---
	catalog, err := registry.LoadCatalog(catalogPath)
	if err != nil {
		zapLog.Warn("engine catalog not loaded", zap.String("path", catalogPath), zap.Error(err))
		catalog = nil
	} else if err := catalog.Validate(); err != nil {
		zapLog.Warn("engine catalog invalid, descriptors may be incomplete", zap.Error(err))
	}
	reg := registry.New(cfg.Gateway.DefaultEngine, catalog)

	available := []engines.MatchingEngine{
		rulebased.NewHandler(rulebased.LoadConfig(), log),
		basic.NewHandler(basic.LoadConfig(), log),
		fuzzy.NewHandler(fuzzy.LoadConfig(), log),
	}
	if cfg.Ranker.BaseURL != "" {
		available = append(available, externalranker.NewHandler(externalranker.LoadConfig(cfg.Ranker), log))
	}
	for _, e := range available {
		if !config.IsEngineEnabled(cfg, e.Name()) {
			zapLog.Info("Engine disabled by configuration", zap.String("engine", e.Name()))
			continue
		}
		if err := reg.Register(e); err != nil {
			zapLog.Fatal("failed to register engine", zap.String("engine", e.Name()), zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("engine registry invalid", zap.Error(err))
	}
	zapLog.Info("Engines registered", zap.Strings("engines", reg.Names()), zap.String("default", reg.Default()))

	// --- Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := http.StatusOK
			if provider.Size() == 0 {
				status = http.StatusServiceUnavailable
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ready":    status == http.StatusOK,
				"poolSize": provider.Size(),
				"time":     time.Now().Format(time.RFC3339),
			})
		})
		mux.Handle("/metrics", promhttp.Handler())

		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- Gateway ---
	server := gateway.NewServer(cfg, reg, provider, log, obs)
	go func() {
		if err := server.Listen(); err != nil {
			zapLog.Fatal("gateway stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refresher != nil {
		refresher.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down gateway", zap.Error(err))
	}

	zapLog.Info("Matching gateway stopped gracefully")
}
