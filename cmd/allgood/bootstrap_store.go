package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/rameerez/allgood/cache"
	pgcache "github.com/rameerez/allgood/cache/postgres"
	rediscache "github.com/rameerez/allgood/cache/redis"
	"github.com/rameerez/allgood/internal/config"
)

// initStore builds the run-state cache for the configured backend. The store
// is probed before use; an unreachable backend degrades to the in-process
// cache rather than blocking startup. Alongside the store it returns a ping
// for the ops healthz endpoint and a close func for shutdown.
func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, func(context.Context) error, func()) {
	memory := func() (cache.Store, func(context.Context) error, func()) {
		return cache.NewMemory(), func(context.Context) error { return nil }, func() {}
	}

	switch cfg.Cache.Backend {
	case "redis":
		client, err := rediscache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis unreachable, using in-process cache", zap.Error(err))
			return memory()
		}
		store := cache.Select(ctx, rediscache.New(client), logger)
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return store, ping, func() { _ = client.Close() }

	case "postgres":
		pg, err := pgcache.New(ctx, cfg.Cache.DB)
		if err != nil {
			logger.Warn("postgres unreachable, using in-process cache", zap.Error(err))
			return memory()
		}
		store := cache.Select(ctx, pg, logger)
		ping := func(ctx context.Context) error { return pg.Pool.Ping(ctx) }
		return store, ping, pg.Close

	case "memory", "":
		logger.Info("using in-process cache")
		return memory()

	default:
		logger.Warn("unknown cache backend, using in-process cache",
			zap.String("backend", cfg.Cache.Backend))
		return memory()
	}
}
