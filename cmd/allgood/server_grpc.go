package main

import (
	"net"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rameerez/allgood"
	"github.com/rameerez/allgood/grpchealth"
	"github.com/rameerez/allgood/internal/config"
	"github.com/rameerez/allgood/internal/obs"
)

func buildGRPCServer(cfg *config.Config, logger *zap.Logger, engine *allgood.Engine) (*grpc.Server, net.Listener, error) {
	grpcMetrics := grpcprometheus.NewServerMetrics()
	prometheus.MustRegister(grpcMetrics)

	opts := obs.GRPCServerOpts()
	opts = append(opts,
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, grpchealth.NewServer(engine, logger))
	grpcMetrics.InitializeMetrics(grpcServer)
	reflection.Register(grpcServer)

	ln, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return nil, nil, err
	}
	return grpcServer, ln, nil
}
