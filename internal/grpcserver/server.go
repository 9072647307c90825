// Package grpcserver runs the listing service's gRPC endpoint.
//
// The only service registered is grpc.health.v1. It reports NOT_SERVING
// until the initial bookmark load has finished, because membership answers
// are not authoritative before then.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health-check name of the listing service.
const ServiceName = "jobmate.listing.v1.ListingService"

// Server wraps a grpc.Server with its health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New constructs a Server with every service marked NOT_SERVING.
func New() *Server {
	s := &Server{
		grpc:   grpc.NewServer(grpc.ChainUnaryInterceptor(recoverUnary, logUnary)),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// MarkReadyWhen flips the health status to SERVING once ready is closed. It
// returns immediately; the wait happens in the background until ctx ends.
func (s *Server) MarkReadyWhen(ctx context.Context, ready <-chan struct{}) {
	go func() {
		select {
		case <-ready:
			s.setStatus(healthpb.HealthCheckResponse_SERVING)
			slog.Info("grpc health serving")
		case <-ctx.Done():
		}
	}()
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// ─── Interceptors ─────────────────────────────────────────────────────────────

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("grpc handler panic", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}
