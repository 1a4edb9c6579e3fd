// Package grpchealth adapts an engine to the standard gRPC health protocol
// (grpc.health.v1), so kubernetes probes and grpc-health-probe can drive
// the same checks the HTTP page serves.
package grpchealth

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rameerez/allgood"
)

// watchInterval is how often Watch re-runs the cycle looking for a status
// change.
const watchInterval = 10 * time.Second

// Runner runs one healthcheck cycle. *allgood.Engine satisfies it.
type Runner interface {
	RunChecks(ctx context.Context) (*allgood.Report, error)
}

type Server struct {
	healthpb.UnimplementedHealthServer
	runner Runner
	log    *zap.Logger
}

func NewServer(r Runner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: r, log: log}
}

// Check runs one cycle. The empty service name means "the whole process";
// per-service statuses are not modeled, matching the protocol's NOT_FOUND
// contract for unknown services.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req.GetService() != "" {
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	return &healthpb.HealthCheckResponse{Status: s.serving(ctx)}, nil
}

// Watch streams the current status immediately and again whenever it
// changes between polls.
func (s *Server) Watch(req *healthpb.HealthCheckRequest, stream healthpb.Health_WatchServer) error {
	if req.GetService() != "" {
		return status.Error(codes.NotFound, "unknown service")
	}

	ctx := stream.Context()
	last := s.serving(ctx)
	if err := stream.Send(&healthpb.HealthCheckResponse{Status: last}); err != nil {
		return err
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cur := s.serving(ctx)
			if cur == last {
				continue
			}
			last = cur
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: cur}); err != nil {
				return err
			}
		}
	}
}

func (s *Server) serving(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	rep, err := s.runner.RunChecks(ctx)
	if err != nil {
		s.log.Error("healthcheck cycle fault", zap.Error(err))
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	if !rep.OK() {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
