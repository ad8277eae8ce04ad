package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type registration struct {
	desc *grpc.ServiceDesc
	impl any
}

// GRPCServer serves the standard health service plus any services added with
// Register. Every non-health call must carry "authorization: Bearer <token>".
type GRPCServer struct {
	address  string
	logger   logging.Logger
	authn    Authenticator
	metrics  *metrics.Metrics
	health   *health.Server
	services []registration
}

// NewGRPCServer creates the server. m may be nil.
func NewGRPCServer(a string, l logging.Logger, authn Authenticator, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		authn:   authn,
		metrics: m,
		health:  health.NewServer(),
	}
}

// Register adds a service. It must be called before Run.
func (s *GRPCServer) Register(desc *grpc.ServiceDesc, impl any) {
	s.services = append(s.services, registration{desc: desc, impl: impl})
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs on an existing listener until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	for _, r := range s.services {
		srv.RegisterService(r.desc, r.impl)
		s.health.SetServingStatus(r.desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
