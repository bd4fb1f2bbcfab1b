package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	webAdapter "pricewatch/internal/adapters/web"
	"pricewatch/internal/app"
	"pricewatch/internal/config"
	"pricewatch/internal/core"
	"pricewatch/internal/db"
	"pricewatch/internal/extract"
	"pricewatch/internal/snapshot"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer pool.Close()

	ttl := time.Duration(cfg.SnapshotTTLMinutes) * time.Minute

	var cache extract.Cache = extract.NoopCache{}
	if cfg.RedisAddr != "" {
		redisCache := extract.NewRedisExtractCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, extract caching disabled")
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	loader := extract.NewLoader(pool, extract.Config{
		HistoryYears: cfg.ExtractHistYears,
		BuyerNames:   cfg.BuyerNames,
	})
	cachedLoader := extract.NewCachedLoader(loader, cache, ttl, log)

	provider := snapshot.New(cachedLoader, ttl, log)
	engine := core.NewEngine(provider, log, cfg.ExecutiveRowCap)
	svc := app.NewAppService(engine, provider)

	// Build the first snapshot up front so the first request does not pay the
	// extract cost. A failure here is logged, not fatal; the source may come
	// back before the first request arrives.
	if _, err := provider.Get(ctx); err != nil {
		log.WithError(err).Warn("initial snapshot build failed")
	}

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: webAdapter.NewHandler(svc, cfg.AllowedOrigins, log),
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
