package server

import (
	"context"
	"fmt"
	"net"

	"github.com/kindredmatch/kindred/internal/config"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// StartGRPCServer boots a gRPC server and registers all provided services.
// The ledger itself is invoked through its typed service operations; the RPC
// surface carries health checking plus whatever registrars the caller wires.
func StartGRPCServer(cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(mapErrors))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// liveness probe for orchestration
	healthpb.RegisterHealthServer(grpcServer, health.NewServer())

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer.Serve(lis)
}

// mapErrors converts domain errors from any registered handler into gRPC
// status errors in one place.
func mapErrors(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	return resp, svcErr.Map(err)
}
