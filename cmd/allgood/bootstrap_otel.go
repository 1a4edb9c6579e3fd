package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/rameerez/allgood/internal/config"
	"github.com/rameerez/allgood/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("otel ready", zap.Bool("enabled", cfg.OTEL.Enable))
	return func(ctx context.Context) error { return closer.Shutdown(ctx) }, nil
}
