package grpchealth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rameerez/allgood"
)

type stubRunner struct {
	rep *allgood.Report
	err error
}

func (s stubRunner) RunChecks(context.Context) (*allgood.Report, error) {
	return s.rep, s.err
}

func TestCheckServing(t *testing.T) {
	s := NewServer(stubRunner{rep: &allgood.Report{Status: allgood.AggregateOK}}, nil)
	resp, err := s.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestCheckNotServingOnFailure(t *testing.T) {
	s := NewServer(stubRunner{rep: &allgood.Report{Status: allgood.AggregateError}}, nil)
	resp, err := s.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestCheckNotServingOnCycleFault(t *testing.T) {
	s := NewServer(stubRunner{err: errors.New("cache store gone")}, nil)
	resp, err := s.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestCheckUnknownService(t *testing.T) {
	s := NewServer(stubRunner{rep: &allgood.Report{Status: allgood.AggregateOK}}, nil)
	_, err := s.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "billing"})
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestCheckDrivesRealEngine(t *testing.T) {
	engine := allgood.New()
	require.NoError(t, engine.Register("always failing", func(c *allgood.C) allgood.Outcome {
		return c.MakeSure(false)
	}))

	s := NewServer(engine, nil)
	resp, err := s.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
