package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rameerez/allgood"
	"github.com/rameerez/allgood/internal/config"
	"github.com/rameerez/allgood/internal/obs"
)

func main() {
	configPath := flag.String("config", "config/allgood.yaml", "path to yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting allgood",
		zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	store, storePing, storeClose := initStore(rootCtx, cfg, logger)
	defer storeClose()

	engine := allgood.New(
		allgood.WithEnvironment(cfg.App.Env),
		allgood.WithLogger(logger),
		allgood.WithStore(store),
		allgood.WithDefaultTimeout(cfg.Checks.DefaultTimeout),
		allgood.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err := registerChecks(engine, cfg, store); err != nil {
		logger.Fatal("register checks", zap.Error(err))
	}
	logger.Info("checks registered", zap.Int("count", len(engine.Checks())))

	grpcServer, grpcLn, err := buildGRPCServer(cfg, logger, engine)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	httpSrv := buildHTTPServer(cfg, logger, engine)
	metricsSrv := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, storePing, logger)

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.Server.GRPCAddr))
		return grpcServer.Serve(grpcLn)
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shCtx)
		_ = metricsSrv.Shutdown(shCtx)
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("serve", zap.Error(err))
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
