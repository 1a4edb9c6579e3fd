package main

import (
	"go.uber.org/zap"

	"github.com/rameerez/allgood/internal/config"
	"github.com/rameerez/allgood/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}
