package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the standard gRPC health service, mirroring readiness.
type GRPCServer struct {
	addr     string
	checker  *Checker
	server   *grpc.Server
	health   *grpchealth.Server
	interval time.Duration
	logger   *logrus.Entry
}

// NewGRPCServer creates a gRPC health server listening on addr.
func NewGRPCServer(addr string, checker *Checker, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		addr:     addr,
		checker:  checker,
		server:   srv,
		health:   hs,
		interval: interval,
		logger:   checker.logger.WithField("transport", "grpc"),
	}
}

// Health returns the underlying health service.
func (s *GRPCServer) Health() healthpb.HealthServer {
	return s.health
}

// Refresh runs readiness checks and publishes the resulting serving status.
func (s *GRPCServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if _, healthy := s.checker.Check(ctx); healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.checker.System(), status)
	return status
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.Refresh(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("gRPC health server starting")
		errCh <- s.server.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("gRPC health server shutting down")
			s.health.Shutdown()
			s.server.GracefulStop()
			return nil
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("grpc serve: %w", err)
			}
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
